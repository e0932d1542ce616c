package dto

import (
	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
)

// TimeLayout is the createdAt format clients expect.
const TimeLayout = "2006-01-02T15:04:05"

type CreateNotificationRequest struct {
	UserID    uuid.UUID  `json:"userId" binding:"required"`
	Title     string     `json:"title" binding:"required,max=200"`
	Message   string     `json:"message" binding:"required"`
	Type      string     `json:"type" binding:"required,oneof=message favorite price_change new_review"`
	RelatedID *uuid.UUID `json:"relatedId"`
}

type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Icon      string     `json:"icon"`
	IsRead    bool       `json:"isRead"`
	RelatedID *uuid.UUID `json:"relatedId,omitempty"`
	CreatedAt string     `json:"createdAt"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

func FromEntity(n *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Icon:      n.Icon(),
		IsRead:    n.IsRead,
		RelatedID: n.RelatedID,
		CreatedAt: n.CreatedAt.UTC().Format(TimeLayout),
	}
}
