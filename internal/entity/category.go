package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCategoryName is shown for ads whose category row is missing.
const DefaultCategoryName = "Uncategorized"

type Category struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"size:100;uniqueIndex;not null" json:"name"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parentId,omitempty"`
	Icon      string     `gorm:"size:100" json:"icon"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	Children  []Category `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
