package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

const (
	RoleAdmin     = "Admin"
	RoleUser      = "User"
	RoleModerator = "Moderator"
)

type User struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string       `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string       `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"size:255;not null" json:"-"`
	Phone        string       `gorm:"size:30;not null" json:"phone"`
	AvatarURL    *string      `gorm:"type:text" json:"avatarUrl,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	LastLogin    *time.Time   `json:"lastLogin,omitempty"`
	Roles        []Role       `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Setting      *UserSetting `gorm:"constraint:OnDelete:CASCADE" json:"setting,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewV7()
	}
	return
}

// UserRole is the join row between users and roles.
type UserRole struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID    uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const ThemeLight = "light"

type UserSetting struct {
	UserID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	NotifyMessages  bool      `gorm:"not null" json:"notifyMessages"`
	NotifyFavorites bool      `gorm:"not null" json:"notifyFavorites"`
	NotifyReviews   bool      `gorm:"not null" json:"notifyReviews"`
	Theme           string    `gorm:"size:20;not null;default:light" json:"theme"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// DefaultSetting is what every freshly registered account starts with.
func DefaultSetting(userID uuid.UUID) *UserSetting {
	return &UserSetting{
		UserID:          userID,
		NotifyMessages:  true,
		NotifyFavorites: true,
		NotifyReviews:   true,
		Theme:           ThemeLight,
	}
}
