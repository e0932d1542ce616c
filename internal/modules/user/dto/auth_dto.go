package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone" binding:"required,max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatarUrl"`
	Roles     []string  `json:"roles"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type CurrentUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatarUrl"`
	Roles     []string  `json:"roles"`
}

type SettingsResponse struct {
	NotifyMessages  bool   `json:"notifyMessages"`
	NotifyFavorites bool   `json:"notifyFavorites"`
	NotifyReviews   bool   `json:"notifyReviews"`
	Theme           string `json:"theme"`
}

// UpdateSettingsRequest is a partial update; nil fields stay unchanged.
type UpdateSettingsRequest struct {
	NotifyMessages  *bool   `json:"notifyMessages"`
	NotifyFavorites *bool   `json:"notifyFavorites"`
	NotifyReviews   *bool   `json:"notifyReviews"`
	Theme           *string `json:"theme" binding:"omitempty,oneof=light dark"`
}
