package agents

import (
	"context"
	"fmt"

	adRepo "github.com/IMRiesen/avitolike/internal/modules/ad/repository"
	search "github.com/IMRiesen/avitolike/internal/modules/search/service"
	"github.com/sirupsen/logrus"
)

const defaultReindexBatch = 100

// SearchReindexer pushes every active ad back into the search index so
// documents missed by best-effort indexing eventually converge.
type SearchReindexer struct {
	ads       adRepo.AdRepository
	search    search.SearchService
	schedule  string
	batchSize int
}

func NewSearchReindexer(ads adRepo.AdRepository, search search.SearchService, schedule string, batchSize int) *SearchReindexer {
	if batchSize <= 0 {
		batchSize = defaultReindexBatch
	}
	return &SearchReindexer{
		ads:       ads,
		search:    search,
		schedule:  schedule,
		batchSize: batchSize,
	}
}

func (a *SearchReindexer) Name() string {
	return "search-reindexer"
}

func (a *SearchReindexer) Schedule() string {
	return a.schedule
}

func (a *SearchReindexer) Execute(ctx context.Context) error {
	var indexed, failed int

	for page := 1; ; page++ {
		ads, total, err := a.ads.FindAll(ctx, adRepo.Filter{Page: page, PageSize: a.batchSize})
		if err != nil {
			return fmt.Errorf("load ads page %d: %w", page, err)
		}

		for _, ad := range ads {
			if err := a.search.IndexAd(ctx, ad); err != nil {
				logrus.WithError(err).WithField("ad_id", ad.ID).Warn("reindex failed")
				failed++
				continue
			}
			indexed++
		}

		if len(ads) == 0 || int64(page*a.batchSize) >= total {
			break
		}
	}

	logrus.WithFields(logrus.Fields{"indexed": indexed, "failed": failed}).Info("search reindex finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d ads failed to index", failed, indexed+failed)
	}
	return nil
}
