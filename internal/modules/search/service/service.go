package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

const adsIndex = "ads"

type SearchService interface {
	IndexAd(ctx context.Context, ad *entity.Ad) error
	DeleteAd(ctx context.Context, id uuid.UUID) error
	// SearchAds returns matching active ad ids ordered by relevance.
	SearchAds(ctx context.Context, query string, limit int) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *meiliSearchService) initIndex() {
	filterable := []any{"category", "status"}
	if _, err := s.client.Index(adsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		logrus.WithError(err).Warn("failed to update ads filterable attributes")
	}

	sortable := []string{"created_at", "price"}
	if _, err := s.client.Index(adsIndex).UpdateSortableAttributes(&sortable); err != nil {
		logrus.WithError(err).Warn("failed to update ads sortable attributes")
	}

	searchable := []string{"title", "description", "location", "category"}
	if _, err := s.client.Index(adsIndex).UpdateSearchableAttributes(&searchable); err != nil {
		logrus.WithError(err).Warn("failed to update ads searchable attributes")
	}
}

type adDocument struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"`
	CreatedAt   int64   `json:"created_at"`
}

func (s *meiliSearchService) cleanText(content string) string {
	content = strings.NewReplacer("</p>", " ", "<br>", " ", "</div>", " ").Replace(content)
	clean := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(clean), " ")
}

func (s *meiliSearchService) IndexAd(ctx context.Context, ad *entity.Ad) error {
	doc := adDocument{
		ID:          ad.ID.String(),
		Title:       s.cleanText(ad.Title),
		Description: s.cleanText(ad.Description),
		Location:    s.cleanText(ad.Location),
		Category:    ad.CategoryName(),
		Price:       ad.Price,
		Status:      ad.Status,
		CreatedAt:   ad.CreatedAt.Unix(),
	}

	pk := "id"
	task, err := s.client.Index(adsIndex).AddDocuments([]adDocument{doc}, &pk)
	if err != nil {
		return fmt.Errorf("index ad %s: %w", ad.ID, err)
	}
	logrus.WithFields(logrus.Fields{"ad_id": ad.ID, "task_uid": task.TaskUID}).Debug("ad queued for indexing")
	return nil
}

func (s *meiliSearchService) DeleteAd(ctx context.Context, id uuid.UUID) error {
	if _, err := s.client.Index(adsIndex).DeleteDocument(id.String()); err != nil {
		return fmt.Errorf("remove ad %s from index: %w", id, err)
	}
	return nil
}

func (s *meiliSearchService) SearchAds(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	resp, err := s.client.Index(adsIndex).Search(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		Filter:               fmt.Sprintf("status = %q", entity.AdStatusActive),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search ads: %w", err)
	}

	return decodeHitIDs(resp.Hits)
}

// decodeHitIDs round-trips hits through JSON so it works with whatever hit
// representation the client returns.
func decodeHitIDs(hits any) ([]uuid.UUID, error) {
	raw, err := json.Marshal(hits)
	if err != nil {
		return nil, err
	}

	var docs []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
