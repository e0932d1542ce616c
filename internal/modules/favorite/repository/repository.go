package repository

import (
	"context"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	Create(ctx context.Context, favorite *entity.Favorite) error
	// Delete returns the number of removed rows.
	Delete(ctx context.Context, userID, adID uuid.UUID) (int64, error)
	Exists(ctx context.Context, userID, adID uuid.UUID) (bool, error)
	// FavoritedAmong returns which of adIDs the user has favorited, in one query.
	FavoritedAmong(ctx context.Context, userID uuid.UUID, adIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	UserIDsByAd(ctx context.Context, adID uuid.UUID) ([]uuid.UUID, error)
	// FindActiveAds lists the user's favorited ads that are still active, newest favorite first.
	FindActiveAds(ctx context.Context, userID uuid.UUID) ([]*entity.Ad, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(ctx context.Context, favorite *entity.Favorite) error {
	return r.db.WithContext(ctx).Omit("User", "Ad").Create(favorite).Error
}

func (r *favoriteRepository) Delete(ctx context.Context, userID, adID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND ad_id = ?", userID, adID).
		Delete(&entity.Favorite{})
	return res.RowsAffected, res.Error
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, adID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Favorite{}).
		Where("user_id = ? AND ad_id = ?", userID, adID).
		Count(&count).Error
	return count > 0, err
}

func (r *favoriteRepository) FavoritedAmong(ctx context.Context, userID uuid.UUID, adIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(adIDs))
	if len(adIDs) == 0 {
		return result, nil
	}

	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&entity.Favorite{}).
		Where("user_id = ? AND ad_id IN ?", userID, adIDs).
		Pluck("ad_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *favoriteRepository) UserIDsByAd(ctx context.Context, adID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.Favorite{}).
		Where("ad_id = ?", adID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *favoriteRepository) FindActiveAds(ctx context.Context, userID uuid.UUID) ([]*entity.Ad, error) {
	var ads []*entity.Ad
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.ad_id = ads.id").
		Where("favorites.user_id = ? AND ads.status = ?", userID, entity.AdStatusActive).
		Preload("Category").
		Preload("Images").
		Order("favorites.added_at desc").
		Find(&ads).Error
	return ads, err
}
