package dto

import "github.com/google/uuid"

type AddFavoriteRequest struct {
	AdID uuid.UUID `json:"adId" binding:"required"`
}

type CheckFavoriteQuery struct {
	AdID string `form:"adId" binding:"required,uuid"`
}

type FavoriteStatusResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

type FavoriteAdResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}
