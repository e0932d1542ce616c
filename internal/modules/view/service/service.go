package view

import (
	"context"
	"fmt"
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	adRepo "github.com/IMRiesen/avitolike/internal/modules/ad/repository"
	viewRepo "github.com/IMRiesen/avitolike/internal/modules/view/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ViewService interface {
	// RecordView bumps the ad's counter by one and appends a history row.
	// Every call counts; there is no per-viewer dedup window.
	RecordView(ctx context.Context, adID uuid.UUID, viewerID *uuid.UUID, ip string) error
}

type viewService struct {
	ads   adRepo.AdRepository
	views viewRepo.ViewRepository
	now   func() time.Time
}

func NewViewService(ads adRepo.AdRepository, views viewRepo.ViewRepository) ViewService {
	return &viewService{
		ads:   ads,
		views: views,
		now:   time.Now,
	}
}

func (s *viewService) RecordView(ctx context.Context, adID uuid.UUID, viewerID *uuid.UUID, ip string) error {
	if err := s.ads.IncrementViews(ctx, adID); err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}

	entry := &entity.ViewHistory{
		UserID:   viewerID,
		AdID:     adID,
		ViewedAt: s.now().UTC(),
		IP:       ip,
	}
	// The history is a write-only side log; losing a row must not fail the read.
	if err := s.views.Create(ctx, entry); err != nil {
		logrus.WithError(err).WithField("ad_id", adID).Warn("failed to append view history")
	}

	return nil
}
