package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/afl-fantasy/platform/internal/app/system"
	"github.com/afl-fantasy/platform/internal/logging"
)

var _ system.Service = (*Refresher)(nil)

// Refresher polls the feed for live scores while a round is in progress.
type Refresher struct {
	service  *Service
	log      *logging.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewRefresher creates a lifecycle-managed live score poller.
func NewRefresher(service *Service, interval time.Duration, log *logging.Logger) *Refresher {
	if log == nil {
		log = logging.NewDefault("ingest-refresher")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Refresher{
		service:  service,
		log:      log,
		interval: interval,
	}
}

func (r *Refresher) Name() string { return "ingest-refresher" }

func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.tick(runCtx)
			}
		}
	}()

	r.log.Info("live score refresher started")
	return nil
}

func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.log.Info("live score refresher stopped")
	return nil
}

func (r *Refresher) tick(ctx context.Context) {
	if r.service == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	round, err := r.service.LiveRound(ctx)
	if err != nil {
		r.log.WithError(err).Warn("live round lookup failed")
		return
	}
	if round == 0 {
		return
	}

	if _, err := r.service.SyncScores(ctx, round); err != nil {
		r.log.WithError(err).
			WithField("round", round).
			Warn("live score sync failed")
	}
}
