package repository

import (
	"context"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	Exists(ctx context.Context, authorID, adID uuid.UUID) (bool, error)
	FindByAdID(ctx context.Context, adID uuid.UUID) ([]*entity.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Omit("Author").Create(review).Error
}

func (r *reviewRepository) Exists(ctx context.Context, authorID, adID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("author_id = ? AND ad_id = ?", authorID, adID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepository) FindByAdID(ctx context.Context, adID uuid.UUID) ([]*entity.Review, error) {
	var reviews []*entity.Review
	err := r.db.WithContext(ctx).
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username")
		}).
		Where("ad_id = ?", adID).
		Order("created_at desc").
		Find(&reviews).Error
	return reviews, err
}
