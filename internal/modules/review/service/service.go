package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IMRiesen/avitolike/internal/entity"
	adRepo "github.com/IMRiesen/avitolike/internal/modules/ad/repository"
	notifService "github.com/IMRiesen/avitolike/internal/modules/notification/service"
	"github.com/IMRiesen/avitolike/internal/modules/review/dto"
	repo "github.com/IMRiesen/avitolike/internal/modules/review/repository"
	userRepo "github.com/IMRiesen/avitolike/internal/modules/user/repository"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var errAlreadyReviewed = fmt.Errorf("you have already reviewed this ad: %w", apperror.ErrConflict)

type ReviewService interface {
	AddReview(ctx context.Context, authorID, adID uuid.UUID, req dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	GetReviews(ctx context.Context, adID uuid.UUID) ([]dto.ReviewResponse, error)
}

type reviewService struct {
	repo          repo.ReviewRepository
	adRepo        adRepo.AdRepository
	userRepo      userRepo.UserRepository
	notifications notifService.NotificationService
	sanitizer     *bluemonday.Policy
}

func NewReviewService(repo repo.ReviewRepository, adRepo adRepo.AdRepository, userRepo userRepo.UserRepository, notifications notifService.NotificationService) ReviewService {
	return &reviewService{
		repo:          repo,
		adRepo:        adRepo,
		userRepo:      userRepo,
		notifications: notifications,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

func (s *reviewService) AddReview(ctx context.Context, authorID, adID uuid.UUID, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	ad, err := s.adRepo.FindByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("ad not found: %w", apperror.FromDB(err))
	}

	exists, err := s.repo.Exists(ctx, authorID, adID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errAlreadyReviewed
	}

	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("author not found: %w", apperror.FromDB(err))
	}

	review := &entity.Review{
		AuthorID:     authorID,
		TargetUserID: ad.UserID,
		AdID:         &ad.ID,
		Rating:       req.Rating,
		Comment:      strings.TrimSpace(s.sanitizer.Sanitize(req.Comment)),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if err = apperror.FromDB(err); errors.Is(err, apperror.ErrConflict) {
			return nil, errAlreadyReviewed
		}
		return nil, err
	}
	review.Author = *author

	if ad.UserID != authorID {
		relatedID := ad.ID
		err := s.notifications.Notify(ctx, &entity.Notification{
			UserID:    ad.UserID,
			Title:     "New review",
			Message:   fmt.Sprintf("%s rated your ad \"%s\" %d/5", author.Username, ad.Title, review.Rating),
			Type:      entity.NotificationNewReview,
			RelatedID: &relatedID,
		})
		if err != nil {
			return nil, err
		}
	}

	resp := dto.FromEntity(review)
	return &resp, nil
}

func (s *reviewService) GetReviews(ctx context.Context, adID uuid.UUID) ([]dto.ReviewResponse, error) {
	reviews, err := s.repo.FindByAdID(ctx, adID)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		resp = append(resp, dto.FromEntity(r))
	}
	return resp, nil
}
