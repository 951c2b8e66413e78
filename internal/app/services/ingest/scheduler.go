package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/afl-fantasy/platform/internal/app/system"
	"github.com/afl-fantasy/platform/internal/logging"
)

var _ system.Service = (*Scheduler)(nil)

// Scheduler runs the full feed sync (players and fixtures) on a cron
// schedule, typically overnight after price changes settle.
type Scheduler struct {
	service  *Service
	schedule string
	log      *logging.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler creates a cron-driven full sync. The schedule uses standard
// five-field cron syntax.
func NewScheduler(service *Service, schedule string, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.NewDefault("ingest-scheduler")
	}
	if schedule == "" {
		schedule = "0 4 * * *"
	}
	return &Scheduler{service: service, schedule: schedule, log: log}
}

func (s *Scheduler) Name() string { return "ingest-scheduler" }

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.runFullSync); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.log.WithField("schedule", s.schedule).Info("full sync scheduler started")
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.log.Info("full sync scheduler stopped")
	return nil
}

// RunNow triggers a full sync outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if _, err := s.service.SyncPlayers(ctx); err != nil {
		return err
	}
	if _, err := s.service.SyncFixtures(ctx, 0); err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) runFullSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.RunNow(ctx); err != nil {
		s.log.WithError(err).Error("scheduled full sync failed")
	}
}
