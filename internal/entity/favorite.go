package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Favorite struct {
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	AdID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	AddedAt time.Time `gorm:"autoCreateTime"`
	User    User      `gorm:"constraint:OnDelete:CASCADE"`
	Ad      Ad        `gorm:"constraint:OnDelete:CASCADE"`
}

type Review struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AuthorID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_author_ad"`
	Author       User       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	TargetUserID uuid.UUID  `gorm:"type:uuid;not null;index"`
	AdID         *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reviews_author_ad"`
	Rating       int        `gorm:"not null"`
	Comment      string     `gorm:"type:text"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
