// Package ingest pulls players, fixtures and live scores from the external
// stats feed into local storage.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/metrics"
	"github.com/afl-fantasy/platform/internal/app/services/players"
	"github.com/afl-fantasy/platform/internal/app/services/scores"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/logging"
)

// Result summarizes one sync run.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Service synchronizes feed data into the platform stores.
type Service struct {
	fetcher  Fetcher
	players  *players.Service
	scores   *scores.Service
	fixtures storage.FixtureStore
	log      *logging.Logger
}

// New constructs an ingest service.
func New(fetcher Fetcher, playerSvc *players.Service, scoreSvc *scores.Service, fixtures storage.FixtureStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("ingest")
	}
	return &Service{
		fetcher:  fetcher,
		players:  playerSvc,
		scores:   scoreSvc,
		fixtures: fixtures,
		log:      log,
	}
}

// SyncPlayers pulls the full player list and upserts each record.
func (s *Service) SyncPlayers(ctx context.Context) (Result, error) {
	start := time.Now()
	records, err := s.fetcher.FetchPlayers(ctx)
	if err != nil {
		metrics.RecordIngestRun("players", time.Since(start), err)
		return Result{}, fmt.Errorf("fetch players: %w", err)
	}

	var res Result
	for _, rec := range records {
		_, created, err := s.players.Sync(ctx, player.Player{
			ExternalRef: rec.ExternalRef,
			FirstName:   rec.FirstName,
			LastName:    rec.LastName,
			Team:        rec.Team,
			Position:    rec.Position,
			Price:       rec.Price,
			Status:      rec.Status,
			Ownership:   rec.Ownership,
		})
		if err != nil {
			res.Skipped++
			s.log.WithError(err).
				WithField("external_ref", rec.ExternalRef).
				Warn("player sync skipped")
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	metrics.RecordIngestRun("players", time.Since(start), nil)
	s.log.WithField("created", res.Created).
		WithField("updated", res.Updated).
		WithField("skipped", res.Skipped).
		Info("player sync complete")
	return res, nil
}

// SyncFixtures pulls the fixture for a round (0 for the full season) and
// upserts each match keyed by round, home and away team.
func (s *Service) SyncFixtures(ctx context.Context, round int) (Result, error) {
	start := time.Now()
	incoming, err := s.fetcher.FetchFixtures(ctx, round)
	if err != nil {
		metrics.RecordIngestRun("fixtures", time.Since(start), err)
		return Result{}, fmt.Errorf("fetch fixtures: %w", err)
	}

	existing, err := s.fixtures.ListFixtures(ctx, round)
	if err != nil {
		return Result{}, err
	}
	index := make(map[string]fixture.Fixture, len(existing))
	for _, fx := range existing {
		index[fixtureKey(fx)] = fx
	}

	var res Result
	for _, fx := range incoming {
		if prev, ok := index[fixtureKey(fx)]; ok {
			prev.Venue = fx.Venue
			prev.StartTime = fx.StartTime
			prev.Status = fx.Status
			if _, err := s.fixtures.UpdateFixture(ctx, prev); err != nil {
				res.Skipped++
				s.log.WithError(err).Warn("fixture update skipped")
				continue
			}
			res.Updated++
			continue
		}
		if _, err := s.fixtures.CreateFixture(ctx, fx); err != nil {
			res.Skipped++
			s.log.WithError(err).Warn("fixture create skipped")
			continue
		}
		res.Created++
	}

	metrics.RecordIngestRun("fixtures", time.Since(start), nil)
	s.log.WithField("created", res.Created).
		WithField("updated", res.Updated).
		Info("fixture sync complete")
	return res, nil
}

// SyncScores pulls live scoring rows for a round and records them, which
// also pushes updates to websocket subscribers.
func (s *Service) SyncScores(ctx context.Context, round int) (Result, error) {
	if round <= 0 {
		return Result{}, fmt.Errorf("round must be positive")
	}

	start := time.Now()
	records, err := s.fetcher.FetchScores(ctx, round)
	if err != nil {
		metrics.RecordIngestRun("scores", time.Since(start), err)
		return Result{}, fmt.Errorf("fetch scores round %d: %w", round, err)
	}

	var res Result
	for _, rec := range records {
		p, err := s.players.GetByExternalRef(ctx, rec.ExternalRef)
		if err != nil {
			res.Skipped++
			s.log.WithField("external_ref", rec.ExternalRef).
				Warn("score for unknown player skipped")
			continue
		}
		_, err = s.scores.Record(ctx, player.RoundScore{
			PlayerID:     p.ID,
			Round:        rec.Round,
			Opponent:     rec.Opponent,
			Venue:        rec.Venue,
			Score:        rec.Score,
			TimeOnGround: rec.TimeOnGround,
		})
		if err != nil {
			res.Skipped++
			s.log.WithError(err).
				WithField("player_id", p.ID).
				Warn("score record skipped")
			continue
		}
		res.Updated++
	}

	metrics.RecordIngestRun("scores", time.Since(start), nil)
	return res, nil
}

// LiveRound returns the lowest round with a live fixture, or 0 when no
// match is in progress.
func (s *Service) LiveRound(ctx context.Context) (int, error) {
	fixtures, err := s.fixtures.ListFixtures(ctx, 0)
	if err != nil {
		return 0, err
	}
	live := 0
	for _, fx := range fixtures {
		if fx.Status != fixture.StatusLive {
			continue
		}
		if live == 0 || fx.Round < live {
			live = fx.Round
		}
	}
	return live, nil
}

func fixtureKey(fx fixture.Fixture) string {
	return fmt.Sprintf("%d:%s:%s", fx.Round, fx.HomeTeam, fx.AwayTeam)
}
