package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AdStatusActive   = "active"
	AdStatusInactive = "inactive"
)

// PlaceholderImageURL is stored when an ad is created without a photo.
const PlaceholderImageURL = "/images/placeholder.jpg"

type Ad struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"type:text"`
	Price       float64   `gorm:"type:numeric(12,2);not null;default:0"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Category    Category  `gorm:"constraint:OnDelete:RESTRICT"`
	Location    string    `gorm:"size:200"`
	ImageURL    string    `gorm:"type:text"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	User        User      `gorm:"constraint:OnDelete:CASCADE"`
	ViewsCount  int       `gorm:"not null;default:0"`
	Status      string    `gorm:"size:20;not null;default:active;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	Images      []AdImage `gorm:"constraint:OnDelete:CASCADE"`
}

func (a *Ad) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// MainImageURL prefers the image flagged as main, then the ad's own URL.
func (a *Ad) MainImageURL() string {
	for _, img := range a.Images {
		if img.IsMain {
			return img.URL
		}
	}
	return a.ImageURL
}

// CategoryName falls back to DefaultCategoryName when the category wasn't loaded.
func (a *Ad) CategoryName() string {
	if a.Category.Name == "" {
		return DefaultCategoryName
	}
	return a.Category.Name
}

type AdImage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	AdID       uuid.UUID `gorm:"type:uuid;not null;index"`
	URL        string    `gorm:"type:text;not null"`
	IsMain     bool      `gorm:"not null;default:false"`
	UploadedAt time.Time `gorm:"autoCreateTime"`
}

func (i *AdImage) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID, err = uuid.NewV7()
	}
	return
}

type ViewHistory struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID   *uuid.UUID `gorm:"type:uuid;index"`
	AdID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ViewedAt time.Time  `gorm:"not null"`
	IP       string     `gorm:"size:45"`
}

func (ViewHistory) TableName() string {
	return "view_history"
}

func (v *ViewHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID, err = uuid.NewV7()
	}
	return
}
