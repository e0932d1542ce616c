package ad

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/IMRiesen/avitolike/internal/entity"
	adDto "github.com/IMRiesen/avitolike/internal/modules/ad/dto"
	repo "github.com/IMRiesen/avitolike/internal/modules/ad/repository"
	categoryRepo "github.com/IMRiesen/avitolike/internal/modules/category/repository"
	favoriteRepo "github.com/IMRiesen/avitolike/internal/modules/favorite/repository"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/IMRiesen/avitolike/pkg/storage"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	notification "github.com/IMRiesen/avitolike/internal/modules/notification/service"
	search "github.com/IMRiesen/avitolike/internal/modules/search/service"
	view "github.com/IMRiesen/avitolike/internal/modules/view/service"
)

const (
	relevantLimit      = 4
	defaultSearchLimit = 20
)

type Service interface {
	ListAds(ctx context.Context, query adDto.ListAdsQuery, viewerID *uuid.UUID) (*adDto.AdListResponse, error)
	GetAd(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID, ip string) (*adDto.AdResponse, error)
	CreateAd(ctx context.Context, ownerID uuid.UUID, req adDto.CreateAdRequest) (*adDto.CreatedAdResponse, error)
	UpdateAd(ctx context.Context, id, requesterID uuid.UUID, req adDto.UpdateAdRequest) error
	DeleteAd(ctx context.Context, id, requesterID uuid.UUID) error
	RelevantAds(ctx context.Context, adID uuid.UUID) ([]adDto.AdSummaryResponse, error)
	UserAds(ctx context.Context, userID uuid.UUID) ([]adDto.AdResponse, error)
	SearchAds(ctx context.Context, query string, limit int, viewerID *uuid.UUID) ([]adDto.AdResponse, error)
}

// PostLimiter throttles ad creation per owner.
type PostLimiter interface {
	Allow(ctx context.Context, userID uuid.UUID) error
	Release(ctx context.Context, userID uuid.UUID) error
}

type Option func(*service)

// WithPostLimiter enforces a cooldown between ads created by the same owner.
func WithPostLimiter(l PostLimiter) Option {
	return func(s *service) { s.postLimiter = l }
}

type service struct {
	adRepo        repo.AdRepository
	categoryRepo  categoryRepo.CategoryRepository
	favoriteRepo  favoriteRepo.FavoriteRepository
	notifications notification.NotificationService
	views         view.ViewService
	search        search.SearchService
	fileStorage   storage.ImageStorage
	sanitizer     *bluemonday.Policy
	postLimiter   PostLimiter
}

// NewService wires the catalog. search and fileStorage may be nil when the
// corresponding backend is not configured.
func NewService(
	adRepo repo.AdRepository,
	categoryRepo categoryRepo.CategoryRepository,
	favoriteRepo favoriteRepo.FavoriteRepository,
	notifications notification.NotificationService,
	views view.ViewService,
	search search.SearchService,
	fileStorage storage.ImageStorage,
	opts ...Option,
) Service {
	s := &service{
		adRepo:        adRepo,
		categoryRepo:  categoryRepo,
		favoriteRepo:  favoriteRepo,
		notifications: notifications,
		views:         views,
		search:        search,
		fileStorage:   fileStorage,
		sanitizer:     bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ListAds(ctx context.Context, query adDto.ListAdsQuery, viewerID *uuid.UUID) (*adDto.AdListResponse, error) {
	query.Normalize()

	ads, total, err := s.adRepo.FindAll(ctx, repo.Filter{
		Category: query.Category,
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, err
	}

	var favorited map[uuid.UUID]bool
	if query.IncludeFavoriteStatus && viewerID != nil {
		favorited, err = s.favoriteRepo.FavoritedAmong(ctx, *viewerID, adIDs(ads))
		if err != nil {
			return nil, err
		}
	}

	data := make([]adDto.AdResponse, 0, len(ads))
	for _, a := range ads {
		resp := adDto.FromEntity(a)
		resp.IsFavorite = favorited[a.ID]
		data = append(data, resp)
	}

	return &adDto.AdListResponse{
		Data:       data,
		TotalCount: total,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}, nil
}

func (s *service) GetAd(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID, ip string) (*adDto.AdResponse, error) {
	ad, err := s.adRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ad not found: %w", apperror.FromDB(err))
	}

	if err := s.views.RecordView(ctx, id, viewerID, ip); err != nil {
		return nil, err
	}
	ad.ViewsCount++

	resp := adDto.FromEntity(ad)
	if viewerID != nil {
		if resp.IsFavorite, err = s.favoriteRepo.Exists(ctx, *viewerID, id); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

func (s *service) CreateAd(ctx context.Context, ownerID uuid.UUID, req adDto.CreateAdRequest) (*adDto.CreatedAdResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(apperror.FromDB(err), apperror.ErrNotFound) {
			return nil, fmt.Errorf("invalid category id: %w", apperror.ErrBadRequest)
		}
		return nil, err
	}

	if s.postLimiter != nil {
		if err := s.postLimiter.Allow(ctx, ownerID); err != nil {
			return nil, err
		}
	}

	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		imageURL = entity.PlaceholderImageURL
	}

	ad := &entity.Ad{
		Title:       s.cleanText(req.Title),
		Description: s.cleanText(req.Description),
		Price:       req.Price,
		CategoryID:  category.ID,
		Location:    s.cleanText(req.Location),
		ImageURL:    imageURL,
		UserID:      ownerID,
		Status:      entity.AdStatusActive,
		Images:      []entity.AdImage{{URL: imageURL, IsMain: true}},
	}

	if err := s.adRepo.Create(ctx, ad); err != nil {
		if s.postLimiter != nil {
			_ = s.postLimiter.Release(ctx, ownerID)
		}
		return nil, fmt.Errorf("failed to create ad: %w", apperror.FromDB(err))
	}

	created, err := s.adRepo.FindByID(ctx, ad.ID)
	if err != nil {
		return nil, err
	}
	s.index(ctx, created)

	logrus.WithFields(logrus.Fields{"ad_id": created.ID, "owner_id": ownerID}).Info("ad created")

	return &adDto.CreatedAdResponse{
		ID:         created.ID,
		Title:      created.Title,
		Price:      created.Price,
		ImageURL:   created.MainImageURL(),
		SellerName: created.User.Username,
		Phone:      created.User.Phone,
	}, nil
}

func (s *service) UpdateAd(ctx context.Context, id, requesterID uuid.UUID, req adDto.UpdateAdRequest) error {
	ad, err := s.adRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ad not found: %w", apperror.FromDB(err))
	}

	if ad.UserID != requesterID {
		return fmt.Errorf("you can only update your own ads: %w", apperror.ErrForbidden)
	}

	if req.CategoryID != ad.CategoryID {
		if _, err := s.categoryRepo.FindByID(ctx, req.CategoryID); err != nil {
			if errors.Is(apperror.FromDB(err), apperror.ErrNotFound) {
				return fmt.Errorf("invalid category id: %w", apperror.ErrBadRequest)
			}
			return err
		}
	}

	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		imageURL = ad.ImageURL
	}
	oldImage := ad.MainImageURL()
	priceChanged := ad.Price != req.Price

	ad.Title = s.cleanText(req.Title)
	ad.Description = s.cleanText(req.Description)
	ad.Price = req.Price
	ad.CategoryID = req.CategoryID
	ad.Location = s.cleanText(req.Location)
	ad.ImageURL = imageURL

	if err := s.adRepo.Update(ctx, ad); err != nil {
		return fmt.Errorf("failed to update ad: %w", apperror.FromDB(err))
	}

	if oldImage != imageURL {
		s.deleteImage(ctx, oldImage)
	}

	if updated, err := s.adRepo.FindByID(ctx, id); err == nil {
		s.index(ctx, updated)
	}

	if priceChanged {
		return s.notifyPriceChange(ctx, ad)
	}
	return nil
}

// notifyPriceChange sends one price_change notification to every user who
// favorited the ad. The ad update is already committed at this point.
func (s *service) notifyPriceChange(ctx context.Context, ad *entity.Ad) error {
	userIDs, err := s.favoriteRepo.UserIDsByAd(ctx, ad.ID)
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}

	relatedID := ad.ID
	batch := make([]*entity.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		batch = append(batch, &entity.Notification{
			UserID:    userID,
			Title:     "Price change",
			Message:   fmt.Sprintf("The price of \"%s\" from your favorites has changed", ad.Title),
			Type:      entity.NotificationPriceChange,
			RelatedID: &relatedID,
		})
	}

	return s.notifications.NotifyMany(ctx, batch)
}

func (s *service) DeleteAd(ctx context.Context, id, requesterID uuid.UUID) error {
	ad, err := s.adRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ad not found: %w", apperror.FromDB(err))
	}

	if ad.UserID != requesterID {
		return fmt.Errorf("you can only delete your own ads: %w", apperror.ErrForbidden)
	}

	if err := s.adRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}

	urls := map[string]struct{}{ad.ImageURL: {}}
	for _, img := range ad.Images {
		urls[img.URL] = struct{}{}
	}
	for u := range urls {
		s.deleteImage(ctx, u)
	}

	if s.search != nil {
		if err := s.search.DeleteAd(ctx, id); err != nil {
			logrus.WithError(err).WithField("ad_id", id).Warn("failed to remove ad from search index")
		}
	}

	return nil
}

func (s *service) RelevantAds(ctx context.Context, adID uuid.UUID) ([]adDto.AdSummaryResponse, error) {
	source, err := s.adRepo.FindByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("ad not found: %w", apperror.FromDB(err))
	}

	ads, err := s.adRepo.FindRelevant(ctx, source.CategoryID, source.ID, relevantLimit)
	if err != nil {
		return nil, err
	}

	resp := make([]adDto.AdSummaryResponse, 0, len(ads))
	for _, a := range ads {
		resp = append(resp, adDto.SummaryFromEntity(a))
	}
	return resp, nil
}

func (s *service) UserAds(ctx context.Context, userID uuid.UUID) ([]adDto.AdResponse, error) {
	ads, err := s.adRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]adDto.AdResponse, 0, len(ads))
	for _, a := range ads {
		resp = append(resp, adDto.FromEntity(a))
	}
	return resp, nil
}

func (s *service) SearchAds(ctx context.Context, query string, limit int, viewerID *uuid.UUID) ([]adDto.AdResponse, error) {
	query = strings.TrimSpace(query)
	if limit < 1 || limit > adDto.MaxPageSize {
		limit = defaultSearchLimit
	}

	ads, err := s.searchIndex(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	var favorited map[uuid.UUID]bool
	if viewerID != nil {
		if favorited, err = s.favoriteRepo.FavoritedAmong(ctx, *viewerID, adIDs(ads)); err != nil {
			return nil, err
		}
	}

	resp := make([]adDto.AdResponse, 0, len(ads))
	for _, a := range ads {
		r := adDto.FromEntity(a)
		r.IsFavorite = favorited[a.ID]
		resp = append(resp, r)
	}
	return resp, nil
}

// searchIndex asks meilisearch first and falls back to the substring filter of
// ListAds when the index is unavailable.
func (s *service) searchIndex(ctx context.Context, query string, limit int) ([]*entity.Ad, error) {
	if s.search != nil {
		ids, err := s.search.SearchAds(ctx, query, limit)
		if err == nil {
			return s.adRepo.FindByIDs(ctx, ids)
		}
		logrus.WithError(err).Warn("search index unavailable, falling back to database")
	}

	ads, _, err := s.adRepo.FindAll(ctx, repo.Filter{Search: query, Page: 1, PageSize: limit})
	return ads, err
}

func (s *service) index(ctx context.Context, ad *entity.Ad) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexAd(ctx, ad); err != nil {
		logrus.WithError(err).WithField("ad_id", ad.ID).Warn("failed to index ad")
	}
}

func (s *service) deleteImage(ctx context.Context, url string) {
	if s.fileStorage == nil || url == "" || url == entity.PlaceholderImageURL {
		return
	}
	if err := s.fileStorage.DeleteImage(ctx, url); err != nil && !errors.Is(err, storage.ErrNotHosted) {
		logrus.WithError(err).WithField("url", url).Warn("failed to delete ad image")
	}
}

func (s *service) cleanText(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

func adIDs(ads []*entity.Ad) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ads))
	for _, a := range ads {
		ids = append(ids, a.ID)
	}
	return ids
}
