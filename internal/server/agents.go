package server

import (
	"strings"

	"github.com/IMRiesen/avitolike/internal/agent"
	"github.com/IMRiesen/avitolike/internal/agent/agents"
	"github.com/IMRiesen/avitolike/internal/config"
	adRepo "github.com/IMRiesen/avitolike/internal/modules/ad/repository"
	searchService "github.com/IMRiesen/avitolike/internal/modules/search/service"
	viewRepo "github.com/IMRiesen/avitolike/internal/modules/view/repository"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NewScheduler builds the maintenance agents for on-demand runs from the CLI.
func NewScheduler(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*agent.Scheduler, error) {
	return newScheduler(cfg, redisClient, adRepo.NewAdRepository(db), viewRepo.NewViewRepository(db), newSearchService(cfg))
}

func newScheduler(
	cfg *config.Config,
	redisClient *redis.Client,
	ads adRepo.AdRepository,
	views viewRepo.ViewRepository,
	search searchService.SearchService,
) (*agent.Scheduler, error) {
	scheduler := agent.NewScheduler(redisClient)

	jobs := []agent.Agent{
		agents.NewViewHistoryPruner(views, cfg.ViewHistoryRetention, cfg.ViewPruneSchedule),
	}
	if search != nil {
		jobs = append(jobs, agents.NewSearchReindexer(ads, search, cfg.SearchReindexSchedule, 0))
	}

	for _, job := range jobs {
		if err := scheduler.RegisterAgent(job); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}

// newSearchService returns nil when meilisearch is not configured.
func newSearchService(cfg *config.Config) searchService.SearchService {
	if cfg.MeiliSearchHost == "" {
		logrus.Warn("MEILISEARCH_HOST not set, search falls back to the database")
		return nil
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	return searchService.NewMeiliSearchService(meiliClient)
}
