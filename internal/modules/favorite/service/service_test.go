package service

import (
	"context"
	"errors"
	"testing"

	"github.com/IMRiesen/avitolike/internal/entity"
	notifService "github.com/IMRiesen/avitolike/internal/modules/notification/service"
	"github.com/IMRiesen/avitolike/internal/testutil/memstore"
	"github.com/IMRiesen/avitolike/pkg/apperror"
	"github.com/google/uuid"
)

type fixture struct {
	store *memstore.Store
	svc   FavoriteService
	owner uuid.UUID
	buyer uuid.UUID
	ad    *entity.Ad
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	owner := &entity.User{Username: "seller", Email: "seller@x.com", IsActive: true}
	buyer := &entity.User{Username: "buyer", Email: "buyer@x.com", IsActive: true}
	for _, u := range []*entity.User{owner, buyer} {
		if err := store.Users().Create(ctx, u, entity.RoleUser); err != nil {
			t.Fatal(err)
		}
	}

	category := &entity.Category{Name: "Transport"}
	if err := store.Categories().Create(ctx, category); err != nil {
		t.Fatal(err)
	}

	ad := &entity.Ad{Title: "Bike", Price: 100, CategoryID: category.ID, UserID: owner.ID, Status: entity.AdStatusActive}
	if err := store.Ads().Create(ctx, ad); err != nil {
		t.Fatal(err)
	}

	notifications := notifService.NewNotificationService(store.Notifications(), nil)
	return &fixture{
		store: store,
		svc:   NewFavoriteService(store.Favorites(), store.Ads(), notifications),
		owner: owner.ID,
		buyer: buyer.ID,
		ad:    ad,
	}
}

func TestAddFavoriteTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.AddFavorite(ctx, f.buyer, f.ad.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.AddFavorite(ctx, f.buyer, f.ad.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second add err = %v, want conflict", err)
	}
	if n := f.store.FavoriteCount(); n != 1 {
		t.Fatalf("favorites = %d, want 1", n)
	}

	notes := f.store.NotificationsFor(f.owner)
	if len(notes) != 1 {
		t.Fatalf("owner notifications = %d, want 1", len(notes))
	}
	if notes[0].Type != entity.NotificationFavorite || notes[0].RelatedID == nil || *notes[0].RelatedID != f.ad.ID {
		t.Fatalf("got %+v", notes[0])
	}
}

func TestAddFavoriteUnknownAd(t *testing.T) {
	f := newFixture(t)

	err := f.svc.AddFavorite(context.Background(), f.buyer, uuid.New())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSelfFavoriteDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.AddFavorite(ctx, f.owner, f.ad.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.RemoveFavorite(ctx, f.owner, f.ad.ID); err != nil {
		t.Fatal(err)
	}
	if notes := f.store.NotificationsFor(f.owner); len(notes) != 0 {
		t.Fatalf("owner notified about own actions: %+v", notes)
	}
}

func TestRemoveFavorite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.RemoveFavorite(ctx, f.buyer, f.ad.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	if err := f.svc.AddFavorite(ctx, f.buyer, f.ad.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.RemoveFavorite(ctx, f.buyer, f.ad.ID); err != nil {
		t.Fatal(err)
	}

	ok, err := f.svc.IsFavorite(ctx, f.buyer, f.ad.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("still favorited after removal")
	}
	if notes := f.store.NotificationsFor(f.owner); len(notes) != 2 {
		t.Fatalf("owner notifications = %d, want 2", len(notes))
	}
}

func TestGetFavoritesSkipsInactiveAds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.AddFavorite(ctx, f.buyer, f.ad.ID); err != nil {
		t.Fatal(err)
	}

	list, err := f.svc.GetFavorites(ctx, f.buyer)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Title != "Bike" || list[0].Category != "Transport" {
		t.Fatalf("got %+v", list)
	}

	f.store.SetAdStatus(f.ad.ID, entity.AdStatusInactive)
	list, err = f.svc.GetFavorites(ctx, f.buyer)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("inactive ad listed: %+v", list)
	}
}
