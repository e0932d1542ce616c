package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	lockPrefix     = "agent:lock:"
	defaultLockTTL = 30 * time.Minute
)

var ErrUnknownAgent = errors.New("unknown agent")

// Scheduler runs registered agents on their cron schedules. With a redis
// client only one replica runs a given tick; without one every process does.
type Scheduler struct {
	cron    *cron.Cron
	agents  []Agent
	redis   *redis.Client
	lockTTL time.Duration
}

func NewScheduler(redisClient *redis.Client) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		redis:   redisClient,
		lockTTL: defaultLockTTL,
	}
}

// RegisterAgent adds the agent and schedules it when it has a schedule.
func (s *Scheduler) RegisterAgent(a Agent) error {
	log := logrus.WithField("agent", a.Name())

	schedule := a.Schedule()
	if schedule != "" {
		if _, err := s.cron.AddFunc(schedule, func() { s.runScheduled(a) }); err != nil {
			return fmt.Errorf("schedule agent %s: %w", a.Name(), err)
		}
		log.WithField("schedule", schedule).Info("agent scheduled")
	} else {
		log.Info("agent registered for on-demand runs")
	}

	s.agents = append(s.agents, a)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.WithField("agents", len(s.agents)).Info("agent scheduler started")
}

// Stop halts scheduling. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	logrus.Info("agent scheduler stopped")
	return ctx
}

// RunAgentByName executes one agent immediately, bypassing the lock.
func (s *Scheduler) RunAgentByName(ctx context.Context, name string) error {
	for _, a := range s.agents {
		if a.Name() == name {
			logrus.WithField("agent", name).Info("running agent on demand")
			return a.Execute(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownAgent, name)
}

func (s *Scheduler) RegisteredAgents() []string {
	names := make([]string, len(s.agents))
	for i, a := range s.agents {
		names[i] = a.Name()
	}
	return names
}

func (s *Scheduler) runScheduled(a Agent) {
	ctx := context.Background()
	log := logrus.WithField("agent", a.Name())

	if !s.acquire(ctx, a.Name()) {
		log.Debug("another instance holds the lock, skipping run")
		return
	}

	start := time.Now()
	if err := a.Execute(ctx); err != nil {
		log.WithError(err).Error("agent job failed")
		return
	}
	log.WithField("duration", time.Since(start).String()).Info("agent job completed")
}

// acquire takes the per-agent lock. A redis failure lets the run proceed.
func (s *Scheduler) acquire(ctx context.Context, name string) bool {
	if s.redis == nil {
		return true
	}

	ok, err := s.redis.SetNX(ctx, lockPrefix+name, time.Now().UTC().Format(time.RFC3339), s.lockTTL).Result()
	if err != nil {
		logrus.WithError(err).WithField("agent", name).Warn("failed to take agent lock")
		return true
	}
	return ok
}
