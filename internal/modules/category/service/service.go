package category

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/IMRiesen/avitolike/internal/modules/category/dto"
	"github.com/IMRiesen/avitolike/internal/modules/category/repository"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/IMRiesen/avitolike/pkg/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const cacheKey = "categories:all"

type CategoryService interface {
	CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	GetAllCategories(ctx context.Context) ([]dto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo        repository.CategoryRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCategoryService(repo repository.CategoryRepository, redisClient *redis.Client, cacheTTL time.Duration) CategoryService {
	return &categoryService{repo: repo, redisClient: redisClient, cacheTTL: cacheTTL}
}

func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("category name is required: %w", apperror.ErrInvalidInput)
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("category %q already exists: %w", name, apperror.ErrConflict)
	} else if !errors.Is(apperror.FromDB(err), apperror.ErrNotFound) {
		return nil, err
	}

	if req.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(apperror.FromDB(err), apperror.ErrNotFound) {
				return nil, fmt.Errorf("parent category not found: %w", apperror.ErrBadRequest)
			}
			return nil, err
		}
	}

	category := &entity.Category{
		Name:     name,
		ParentID: req.ParentID,
		Icon:     req.Icon,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, apperror.FromDB(err)
	}

	s.invalidate(ctx)
	resp := dto.FromEntity(category)
	return &resp, nil
}

func (s *categoryService) GetAllCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	var cached []dto.CategoryResponse
	if hit, err := cache.Get(ctx, s.redisClient, cacheKey, &cached); err != nil {
		logrus.WithError(err).Warn("read category cache")
	} else if hit {
		return cached, nil
	}

	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, dto.FromEntity(c))
	}

	if err := cache.Set(ctx, s.redisClient, cacheKey, resp, s.cacheTTL); err != nil {
		logrus.WithError(err).Warn("write category cache")
	}
	return resp, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return fmt.Errorf("category not found: %w", apperror.FromDB(err))
	}

	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("category has subcategories: %w", apperror.ErrConflict)
	}

	ads, err := s.repo.CountAds(ctx, id)
	if err != nil {
		return err
	}
	if ads > 0 {
		return fmt.Errorf("category still has ads: %w", apperror.ErrConflict)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromDB(err)
	}

	s.invalidate(ctx)
	return nil
}

func (s *categoryService) invalidate(ctx context.Context) {
	if err := cache.Delete(ctx, s.redisClient, cacheKey); err != nil {
		logrus.WithError(err).Warn("invalidate category cache")
	}
}
