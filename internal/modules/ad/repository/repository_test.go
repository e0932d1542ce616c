package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/IMRiesen/avitolike/internal/testutil/pgtest"
	"gorm.io/gorm"
)

type seeded struct {
	repo                          AdRepository
	bike, car, laptop, old, shirt *entity.Ad
}

func seed(t *testing.T, db *gorm.DB) *seeded {
	t.Helper()

	seller := &entity.User{Username: "seller", Email: "seller@x.com", PasswordHash: "x", IsActive: true}
	if err := db.Omit("Roles", "Setting").Create(seller).Error; err != nil {
		t.Fatal(err)
	}
	transport := &entity.Category{Name: "Transport"}
	electronics := &entity.Category{Name: "Electronics"}
	if err := db.Create([]*entity.Category{transport, electronics}).Error; err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ad := func(title, description, location string, category *entity.Category, status string, age int) *entity.Ad {
		return &entity.Ad{
			Title:       title,
			Description: description,
			Location:    location,
			Price:       10,
			CategoryID:  category.ID,
			UserID:      seller.ID,
			Status:      status,
			CreatedAt:   base.Add(time.Duration(age) * time.Hour),
		}
	}

	s := &seeded{
		repo:   NewAdRepository(db),
		bike:   ad("Mountain BIKE", "21 gears", "Kazan", transport, entity.AdStatusActive, 1),
		car:    ad("Sedan", "comes with a bike rack", "Moscow", transport, entity.AdStatusActive, 2),
		laptop: ad("Laptop", "barely used", "Bikeville", electronics, entity.AdStatusActive, 3),
		old:    ad("Old bike", "", "Kazan", transport, entity.AdStatusInactive, 4),
		shirt:  ad("100% cotton shirt", "", "", electronics, entity.AdStatusActive, 5),
	}
	for _, a := range []*entity.Ad{s.bike, s.car, s.laptop, s.old, s.shirt} {
		if err := s.repo.Create(context.Background(), a); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func titles(ads []*entity.Ad) []string {
	out := make([]string, len(ads))
	for i, a := range ads {
		out[i] = a.Title
	}
	return out
}

func TestFindAllSearchAcrossFields(t *testing.T) {
	s := seed(t, pgtest.Open(t))

	ads, total, err := s.repo.FindAll(context.Background(), Filter{Search: "bike", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	got := titles(ads)
	if total != 3 || len(got) != 3 || got[0] != "Laptop" || got[1] != "Sedan" || got[2] != "Mountain BIKE" {
		t.Fatalf("total=%d ads=%v", total, got)
	}
	if ads[0].Category.Name != "Electronics" || ads[0].User.Username != "seller" {
		t.Fatalf("relations not loaded: %+v", ads[0])
	}
}

func TestFindAllCategoryWithCount(t *testing.T) {
	s := seed(t, pgtest.Open(t))
	ctx := context.Background()

	ads, total, err := s.repo.FindAll(ctx, Filter{Category: "Transport", Search: "bike", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(ads); total != 2 || len(got) != 2 || got[0] != "Sedan" || got[1] != "Mountain BIKE" {
		t.Fatalf("total=%d ads=%v", total, got)
	}

	page2, total, err := s.repo.FindAll(ctx, Filter{Category: "Transport", Page: 2, PageSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(page2) != 1 || page2[0].ID != s.bike.ID {
		t.Fatalf("total=%d page=%v", total, titles(page2))
	}
	if page2[0].Category.Name != "Transport" || len(page2[0].Images) != 0 {
		t.Fatalf("got %+v", page2[0])
	}
}

func TestFindAllEscapesWildcards(t *testing.T) {
	s := seed(t, pgtest.Open(t))
	ctx := context.Background()

	for _, search := range []string{"100%", "%"} {
		ads, total, err := s.repo.FindAll(ctx, Filter{Search: search, Page: 1, PageSize: 10})
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 || len(ads) != 1 || ads[0].ID != s.shirt.ID {
			t.Fatalf("search %q: total=%d ads=%v", search, total, titles(ads))
		}
	}

	ads, total, err := s.repo.FindAll(ctx, Filter{Search: "_", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(ads) != 0 {
		t.Fatalf("underscore matched %v", titles(ads))
	}
}

func TestIncrementViewsAndDelete(t *testing.T) {
	db := pgtest.Open(t)
	s := seed(t, db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.repo.IncrementViews(ctx, s.bike.ID); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.repo.FindByID(ctx, s.bike.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ViewsCount != 2 {
		t.Fatalf("views = %d", got.ViewsCount)
	}

	if err := db.Create(&entity.AdImage{AdID: s.bike.ID, URL: "https://img/1.jpg", IsMain: true}).Error; err != nil {
		t.Fatal(err)
	}
	if err := s.repo.Delete(ctx, s.bike.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.repo.FindByID(ctx, s.bike.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
