package dto

import (
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
)

// CreateReviewRequest takes the rating as given; clients render it on a 1-5 scale.
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ReviewResponse struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	Date       time.Time `json:"date"`
}

func FromEntity(r *entity.Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		AuthorID:   r.AuthorID,
		AuthorName: r.Author.Username,
		Rating:     r.Rating,
		Comment:    r.Comment,
		Date:       r.CreatedAt,
	}
}
