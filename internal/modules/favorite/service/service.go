package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/IMRiesen/avitolike/internal/entity"
	adRepo "github.com/IMRiesen/avitolike/internal/modules/ad/repository"
	"github.com/IMRiesen/avitolike/internal/modules/favorite/dto"
	favRepo "github.com/IMRiesen/avitolike/internal/modules/favorite/repository"
	notifService "github.com/IMRiesen/avitolike/internal/modules/notification/service"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/google/uuid"
)

type FavoriteService interface {
	AddFavorite(ctx context.Context, userID, adID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, adID uuid.UUID) error
	IsFavorite(ctx context.Context, userID, adID uuid.UUID) (bool, error)
	GetFavorites(ctx context.Context, userID uuid.UUID) ([]dto.FavoriteAdResponse, error)
}

type favoriteService struct {
	repo          favRepo.FavoriteRepository
	adRepo        adRepo.AdRepository
	notifications notifService.NotificationService
}

func NewFavoriteService(repo favRepo.FavoriteRepository, adRepo adRepo.AdRepository, notifications notifService.NotificationService) FavoriteService {
	return &favoriteService{
		repo:          repo,
		adRepo:        adRepo,
		notifications: notifications,
	}
}

func (s *favoriteService) AddFavorite(ctx context.Context, userID, adID uuid.UUID) error {
	ad, err := s.adRepo.FindByID(ctx, adID)
	if err != nil {
		return fmt.Errorf("ad not found: %w", apperror.FromDB(err))
	}

	exists, err := s.repo.Exists(ctx, userID, adID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("ad is already in favorites: %w", apperror.ErrConflict)
	}

	// Two concurrent adds can both pass the check above; the composite
	// primary key rejects the second one.
	if err := s.repo.Create(ctx, &entity.Favorite{UserID: userID, AdID: adID}); err != nil {
		if err = apperror.FromDB(err); errors.Is(err, apperror.ErrConflict) {
			return fmt.Errorf("ad is already in favorites: %w", err)
		}
		return err
	}

	return s.notifyOwner(ctx, ad, userID,
		"New favorite",
		fmt.Sprintf("Your ad \"%s\" was added to someone's favorites", ad.Title),
	)
}

func (s *favoriteService) RemoveFavorite(ctx context.Context, userID, adID uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, userID, adID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("favorite not found: %w", apperror.ErrNotFound)
	}

	ad, err := s.adRepo.FindByID(ctx, adID)
	if err != nil {
		if errors.Is(apperror.FromDB(err), apperror.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.notifyOwner(ctx, ad, userID,
		"Removed from favorites",
		fmt.Sprintf("Your ad \"%s\" was removed from someone's favorites", ad.Title),
	)
}

// notifyOwner skips self-notifications.
func (s *favoriteService) notifyOwner(ctx context.Context, ad *entity.Ad, actorID uuid.UUID, title, message string) error {
	if ad.UserID == actorID {
		return nil
	}

	relatedID := ad.ID
	return s.notifications.Notify(ctx, &entity.Notification{
		UserID:    ad.UserID,
		Title:     title,
		Message:   message,
		Type:      entity.NotificationFavorite,
		RelatedID: &relatedID,
	})
}

func (s *favoriteService) IsFavorite(ctx context.Context, userID, adID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, userID, adID)
}

func (s *favoriteService) GetFavorites(ctx context.Context, userID uuid.UUID) ([]dto.FavoriteAdResponse, error) {
	ads, err := s.repo.FindActiveAds(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.FavoriteAdResponse, 0, len(ads))
	for _, ad := range ads {
		resp = append(resp, dto.FavoriteAdResponse{
			ID:          ad.ID,
			Title:       ad.Title,
			Price:       ad.Price,
			ImageURL:    ad.MainImageURL(),
			Category:    ad.CategoryName(),
			Location:    ad.Location,
			Description: ad.Description,
		})
	}
	return resp, nil
}
