package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationMessage     = "message"
	NotificationFavorite    = "favorite"
	NotificationPriceChange = "price_change"
	NotificationNewReview   = "new_review"
)

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_notifications_user_read"`
	Title     string     `gorm:"size:200;not null"`
	Message   string     `gorm:"type:text;not null"`
	Type      string     `gorm:"size:30;not null"`
	IsRead    bool       `gorm:"not null;default:false;index:idx_notifications_user_read"`
	RelatedID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}

// Icon maps the notification type to its display glyph.
func (n *Notification) Icon() string {
	switch n.Type {
	case NotificationMessage:
		return "✉️"
	case NotificationFavorite:
		return "❤️"
	case NotificationPriceChange:
		return "💰"
	case NotificationNewReview:
		return "⭐"
	default:
		return "🔔"
	}
}
