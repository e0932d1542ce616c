package agents

import (
	"context"
	"fmt"
	"time"

	viewRepo "github.com/IMRiesen/avitolike/internal/modules/view/repository"
	"github.com/sirupsen/logrus"
)

// ViewHistoryPruner drops view history older than the retention window.
// Ad view counters are not touched.
type ViewHistoryPruner struct {
	views     viewRepo.ViewRepository
	retention time.Duration
	schedule  string
	now       func() time.Time
}

func NewViewHistoryPruner(views viewRepo.ViewRepository, retention time.Duration, schedule string) *ViewHistoryPruner {
	return &ViewHistoryPruner{
		views:     views,
		retention: retention,
		schedule:  schedule,
		now:       time.Now,
	}
}

func (a *ViewHistoryPruner) Name() string {
	return "view-history-pruner"
}

func (a *ViewHistoryPruner) Schedule() string {
	return a.schedule
}

func (a *ViewHistoryPruner) Execute(ctx context.Context) error {
	if a.retention <= 0 {
		return nil
	}

	cutoff := a.now().UTC().Add(-a.retention)
	removed, err := a.views.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune view history: %w", err)
	}

	logrus.WithFields(logrus.Fields{"removed": removed, "cutoff": cutoff.Format(time.RFC3339)}).Info("view history pruned")
	return nil
}
