package app

import (
	"context"
	"fmt"
	"time"

	"github.com/afl-fantasy/platform/internal/app/services/captain"
	ingestsvc "github.com/afl-fantasy/platform/internal/app/services/ingest"
	"github.com/afl-fantasy/platform/internal/app/services/players"
	projectionsvc "github.com/afl-fantasy/platform/internal/app/services/projections"
	"github.com/afl-fantasy/platform/internal/app/services/scores"
	"github.com/afl-fantasy/platform/internal/app/services/teams"
	"github.com/afl-fantasy/platform/internal/app/services/trades"
	"github.com/afl-fantasy/platform/internal/app/services/users"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/app/storage/memory"
	"github.com/afl-fantasy/platform/internal/app/system"
	"github.com/afl-fantasy/platform/internal/cache"
	"github.com/afl-fantasy/platform/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Players     storage.PlayerStore
	Fixtures    storage.FixtureStore
	Projections storage.ProjectionStore
	Squads      storage.SquadStore
	Users       storage.UserStore
}

// Options configures optional application behavior.
type Options struct {
	Cache           cache.Cache
	JWTSecret       string
	TokenTTL        time.Duration
	FeedURL         string
	FeedAPIKey      string
	RefreshInterval time.Duration
	SyncSchedule    string
	LiveScores      bool
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager  *system.Manager
	log      *logging.Logger
	fixtures storage.FixtureStore

	Players     *players.Service
	Projections *projectionsvc.Service
	Trades      *trades.Service
	Captain     *captain.Service
	Teams       *teams.Service
	Scores      *scores.Service
	Ingest      *ingestsvc.Service
	Users       *users.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}

	mem := memory.New()
	if stores.Players == nil {
		stores.Players = mem
	}
	if stores.Fixtures == nil {
		stores.Fixtures = mem
	}
	if stores.Projections == nil {
		stores.Projections = mem
	}
	if stores.Squads == nil {
		stores.Squads = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}

	c := opts.Cache
	if c == nil {
		c = cache.Noop{}
	}

	manager := system.NewManager()

	playerService := players.New(stores.Players, c, log)
	projectionService := projectionsvc.New(stores.Players, stores.Fixtures, stores.Projections, c, log)
	tradeService := trades.New(stores.Players, stores.Projections, log)
	captainService := captain.New(stores.Players, stores.Projections, stores.Fixtures, log)
	userService := users.New(stores.Users, opts.JWTSecret, opts.TokenTTL, log)
	teamService := teams.New(stores.Users, stores.Players, stores.Squads, log)

	var hub *scores.Hub
	if opts.LiveScores {
		hub = scores.NewHub(log)
	}
	scoreService := scores.New(playerService, stores.Squads, hub, log)

	var ingestService *ingestsvc.Service
	if opts.FeedURL != "" {
		fetcher := ingestsvc.NewHTTPFetcher(opts.FeedURL, opts.FeedAPIKey)
		ingestService = ingestsvc.New(fetcher, playerService, scoreService, stores.Fixtures, log)

		refresher := ingestsvc.NewRefresher(ingestService, opts.RefreshInterval, log)
		scheduler := ingestsvc.NewScheduler(ingestService, opts.SyncSchedule, log)
		for _, svc := range []system.Service{refresher, scheduler} {
			if err := manager.Register(svc); err != nil {
				return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
			}
		}
	} else {
		log.Warn("STATS_FEED_URL not set; feed ingestion disabled")
	}

	return &Application{
		manager:     manager,
		log:         log,
		fixtures:    stores.Fixtures,
		Players:     playerService,
		Projections: projectionService,
		Trades:      tradeService,
		Captain:     captainService,
		Teams:       teamService,
		Scores:      scoreService,
		Ingest:      ingestService,
		Users:       userService,
	}, nil
}

// Fixtures exposes the fixture store for read and admin endpoints.
func (a *Application) Fixtures() storage.FixtureStore {
	return a.fixtures
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services and disconnects live clients.
func (a *Application) Stop(ctx context.Context) error {
	err := a.manager.Stop(ctx)
	if hub := a.Scores.Hub(); hub != nil {
		hub.Close()
	}
	return err
}
