package repository

import (
	"context"
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	"gorm.io/gorm"
)

type ViewRepository interface {
	Create(ctx context.Context, view *entity.ViewHistory) error
	// DeleteBefore removes history rows viewed before cutoff and reports how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type viewRepository struct {
	db *gorm.DB
}

func NewViewRepository(db *gorm.DB) ViewRepository {
	return &viewRepository{db: db}
}

func (r *viewRepository) Create(ctx context.Context, view *entity.ViewHistory) error {
	return r.db.WithContext(ctx).Create(view).Error
}

func (r *viewRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("viewed_at < ?", cutoff).
		Delete(&entity.ViewHistory{})
	return result.RowsAffected, result.Error
}
