package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/IMRiesen/avitolike/internal/testutil/memstore"
	"github.com/google/uuid"
)

type recordingSearch struct {
	indexed []uuid.UUID
	failOn  uuid.UUID
}

func (r *recordingSearch) IndexAd(ctx context.Context, ad *entity.Ad) error {
	if ad.ID == r.failOn {
		return errors.New("index unavailable")
	}
	r.indexed = append(r.indexed, ad.ID)
	return nil
}

func (r *recordingSearch) DeleteAd(ctx context.Context, id uuid.UUID) error { return nil }

func (r *recordingSearch) SearchAds(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	return nil, nil
}

func seedAds(t *testing.T, store *memstore.Store, n int) []uuid.UUID {
	t.Helper()
	ctx := context.Background()

	category := &entity.Category{Name: "Transport"}
	if err := store.Categories().Create(ctx, category); err != nil {
		t.Fatal(err)
	}

	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		ad := &entity.Ad{Title: "Bike", Price: 1, CategoryID: category.ID, UserID: uuid.New()}
		if err := store.Ads().Create(ctx, ad); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, ad.ID)
	}
	return ids
}

func TestSearchReindexerWalksAllPages(t *testing.T) {
	store := memstore.New()
	ids := seedAds(t, store, 7)
	store.SetAdStatus(ids[0], entity.AdStatusInactive)

	idx := &recordingSearch{}
	agent := NewSearchReindexer(store.Ads(), idx, "0 4 * * *", 3)

	if err := agent.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(idx.indexed) != 6 {
		t.Fatalf("indexed %d ads, want 6", len(idx.indexed))
	}
	for _, id := range idx.indexed {
		if id == ids[0] {
			t.Fatal("inactive ad was indexed")
		}
	}
}

func TestSearchReindexerReportsFailures(t *testing.T) {
	store := memstore.New()
	ids := seedAds(t, store, 3)

	idx := &recordingSearch{failOn: ids[1]}
	err := NewSearchReindexer(store.Ads(), idx, "", 0).Execute(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(idx.indexed) != 2 {
		t.Fatalf("indexed %d ads, want the other 2", len(idx.indexed))
	}
}

func TestViewHistoryPruner(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{time.Hour, 24 * time.Hour, 40 * 24 * time.Hour, 400 * 24 * time.Hour} {
		if err := store.Views().Create(ctx, &entity.ViewHistory{AdID: uuid.New(), ViewedAt: now.Add(-age)}); err != nil {
			t.Fatal(err)
		}
	}

	agent := NewViewHistoryPruner(store.Views(), 30*24*time.Hour, "30 3 * * *")
	agent.now = func() time.Time { return now }

	if err := agent.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(store.ViewHistory()); n != 2 {
		t.Fatalf("kept %d rows, want 2", n)
	}

	agent.retention = 0
	if err := agent.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(store.ViewHistory()); n != 2 {
		t.Fatalf("zero retention removed rows: %d left", n)
	}
}
