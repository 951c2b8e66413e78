// Package projections computes and serves player score projections.
package projections

import (
	"context"
	"fmt"
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/projection"
	"github.com/afl-fantasy/platform/internal/app/metrics"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/cache"
	"github.com/afl-fantasy/platform/internal/logging"
)

const roundCacheTTL = 5 * time.Minute

// Service orchestrates the projection engine over the stores.
type Service struct {
	players  storage.PlayerStore
	fixtures storage.FixtureStore
	store    storage.ProjectionStore
	cache    cache.Cache
	log      *logging.Logger
}

// New constructs a projection service.
func New(players storage.PlayerStore, fixtures storage.FixtureStore, store storage.ProjectionStore, c cache.Cache, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("projections")
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{players: players, fixtures: fixtures, store: store, cache: c, log: log}
}

// ComputeRound recomputes projections for every player ahead of a round and
// persists them. Returns the number of projections written.
func (s *Service) ComputeRound(ctx context.Context, round int) (int, error) {
	if round <= 0 {
		return 0, fmt.Errorf("round must be positive")
	}

	allPlayers, err := s.players.ListPlayers(ctx, player.Filter{})
	if err != nil {
		return 0, err
	}
	roundFixtures, err := s.fixtures.ListFixtures(ctx, round)
	if err != nil {
		return 0, err
	}
	factors, err := s.opponentFactors(ctx, round)
	if err != nil {
		return 0, err
	}

	computed := 0
	for _, p := range allPlayers {
		scores, err := s.players.ListRoundScores(ctx, p.ID)
		if err != nil {
			metrics.RecordProjection(err)
			return computed, err
		}

		in := Inputs{Player: p, Scores: scores, Round: round}
		for _, f := range roundFixtures {
			if !f.Involves(p.Team) {
				continue
			}
			in.OpponentFactor = factors[f.OpponentOf(p.Team)]
			if f.HomeTeam == p.Team {
				in.VenueFactor = homeVenueFactor
			} else {
				in.VenueFactor = awayVenueFactor
			}
			break
		}

		proj := Compute(in)
		if _, err := s.store.CreateProjection(ctx, proj); err != nil {
			metrics.RecordProjection(err)
			return computed, err
		}
		metrics.RecordProjection(nil)
		computed++
	}

	if err := s.cache.Delete(ctx, cache.Key("projections", fmt.Sprintf("round-%d", round))); err != nil {
		s.log.WithError(err).Warn("invalidate projection cache")
	}

	s.log.WithField("round", round).
		WithField("players", computed).
		WithField("version", projection.AlgorithmVersion).
		Info("round projections computed")
	return computed, nil
}

// Get returns the stored projection for a player and round.
func (s *Service) Get(ctx context.Context, playerID string, round int) (projection.Projection, error) {
	return s.store.GetProjection(ctx, playerID, round)
}

// ListRound returns all projections for a round, highest projected score
// first, served from cache when warm.
func (s *Service) ListRound(ctx context.Context, round int) ([]projection.Projection, error) {
	key := cache.Key("projections", fmt.Sprintf("round-%d", round))

	var cached []projection.Projection
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	result, err := s.store.ListProjections(ctx, round)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, result, roundCacheTTL); err != nil {
		s.log.WithError(err).Warn("cache round projections")
	}
	return result, nil
}

// opponentFactors derives a defensive difficulty factor per team from the
// scores recorded against it in prior rounds. Teams conceding above the
// league average rate above 1.0.
func (s *Service) opponentFactors(ctx context.Context, upToRound int) (map[string]float64, error) {
	concededTotal := make(map[string]int)
	concededGames := make(map[string]int)
	leagueTotal := 0
	leagueCount := 0

	for round := 1; round < upToRound; round++ {
		scores, err := s.players.ListScoresForRound(ctx, round)
		if err != nil {
			return nil, err
		}
		for _, sc := range scores {
			if sc.Opponent == "" {
				continue
			}
			concededTotal[sc.Opponent] += sc.Score
			concededGames[sc.Opponent]++
			leagueTotal += sc.Score
			leagueCount++
		}
	}

	factors := make(map[string]float64, len(concededTotal))
	if leagueCount == 0 {
		return factors, nil
	}
	leagueAvg := float64(leagueTotal) / float64(leagueCount)
	for team, total := range concededTotal {
		avg := float64(total) / float64(concededGames[team])
		factors[team] = avg / leagueAvg
	}
	return factors, nil
}
