package repository

import (
	"context"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Filter selects a page of active ads.
type Filter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

type AdRepository interface {
	Create(ctx context.Context, ad *entity.Ad) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Ad, error)
	FindAll(ctx context.Context, filter Filter) ([]*entity.Ad, int64, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Ad, error)
	FindRelevant(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]*entity.Ad, error)
	FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Ad, error)
	Update(ctx context.Context, ad *entity.Ad) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	// Delete removes images, favorites and reviews before the ad itself.
	Delete(ctx context.Context, id uuid.UUID) error
}

type adRepository struct {
	db *gorm.DB
}

func NewAdRepository(db *gorm.DB) AdRepository {
	return &adRepository{db: db}
}

func (r *adRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images").
		Preload("User")
}

func (r *adRepository) Create(ctx context.Context, ad *entity.Ad) error {
	return r.db.WithContext(ctx).Omit("Category", "User").Create(ad).Error
}

func (r *adRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ad, error) {
	var ad entity.Ad
	if err := r.withRelations(ctx).First(&ad, "ads.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *adRepository) FindAll(ctx context.Context, filter Filter) ([]*entity.Ad, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.Ad{}).
		Where("ads.status = ?", entity.AdStatusActive)

	if filter.Category != "" {
		query = query.
			Joins("JOIN categories ON categories.id = ads.category_id").
			Where("categories.name = ?", filter.Category)
	}

	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		query = query.Where(
			"(ads.title ILIKE ? OR ads.description ILIKE ? OR ads.location ILIKE ?)",
			pattern, pattern, pattern,
		)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ads []*entity.Ad
	err := query.
		Preload("Category").
		Preload("Images").
		Preload("User").
		Order("ads.created_at desc").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&ads).Error
	if err != nil {
		return nil, 0, err
	}

	return ads, total, nil
}

func (r *adRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Ad, error) {
	if len(ids) == 0 {
		return []*entity.Ad{}, nil
	}

	var ads []*entity.Ad
	if err := r.withRelations(ctx).
		Where("ads.id IN ? AND ads.status = ?", ids, entity.AdStatusActive).
		Find(&ads).Error; err != nil {
		return nil, err
	}

	// Keep the caller's ordering (search relevance).
	byID := make(map[uuid.UUID]*entity.Ad, len(ads))
	for _, a := range ads {
		byID[a.ID] = a
	}

	ordered := make([]*entity.Ad, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

func (r *adRepository) FindRelevant(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]*entity.Ad, error) {
	var ads []*entity.Ad
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("category_id = ? AND id <> ?", categoryID, excludeID).
		Order("created_at desc").
		Limit(limit).
		Find(&ads).Error
	return ads, err
}

func (r *adRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Ad, error) {
	var ads []*entity.Ad
	err := r.withRelations(ctx).
		Where("ads.user_id = ? AND ads.status = ?", userID, entity.AdStatusActive).
		Order("ads.created_at desc").
		Find(&ads).Error
	return ads, err
}

func (r *adRepository) Update(ctx context.Context, ad *entity.Ad) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entity.Ad{}).
			Where("id = ?", ad.ID).
			Updates(map[string]any{
				"title":       ad.Title,
				"description": ad.Description,
				"price":       ad.Price,
				"category_id": ad.CategoryID,
				"location":    ad.Location,
				"image_url":   ad.ImageURL,
				"updated_at":  gorm.Expr("NOW()"),
			}).Error
		if err != nil {
			return err
		}

		return tx.Model(&entity.AdImage{}).
			Where("ad_id = ? AND is_main = ?", ad.ID, true).
			Update("url", ad.ImageURL).Error
	})
}

func (r *adRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.Ad{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

func (r *adRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ad_id = ?", id).Delete(&entity.AdImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ad_id = ?", id).Delete(&entity.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ad_id = ?", id).Delete(&entity.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Ad{}, "id = ?", id).Error
	})
}

func escapeLike(s string) string {
	r := []rune{}
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return string(r)
}
