// Package players manages AFL player records and round scores.
package players

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/cache"
	"github.com/afl-fantasy/platform/internal/logging"
)

const listCacheTTL = 2 * time.Minute

// Service manages players and their round scores.
type Service struct {
	store storage.PlayerStore
	cache cache.Cache
	log   *logging.Logger
}

// New constructs a player service. A nil cache disables caching.
func New(store storage.PlayerStore, c cache.Cache, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("players")
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{store: store, cache: c, log: log}
}

// Create registers a new player.
func (s *Service) Create(ctx context.Context, p player.Player) (player.Player, error) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Team = strings.TrimSpace(strings.ToUpper(p.Team))

	if p.LastName == "" {
		return player.Player{}, fmt.Errorf("last_name is required")
	}
	if p.Team == "" {
		return player.Player{}, fmt.Errorf("team is required")
	}
	if !p.Position.Valid() {
		return player.Player{}, fmt.Errorf("position must be one of DEF, MID, RUC, FWD")
	}
	if p.Price < 0 {
		return player.Player{}, fmt.Errorf("price cannot be negative")
	}
	if p.Status == "" {
		p.Status = player.StatusAvailable
	}

	created, err := s.store.CreatePlayer(ctx, p)
	if err != nil {
		return player.Player{}, err
	}
	s.invalidateLists(ctx)
	s.log.WithField("player_id", created.ID).
		WithField("team", created.Team).
		Info("player created")
	return created, nil
}

// Sync upserts a player keyed by their stats feed reference. It reports
// whether a new record was created.
func (s *Service) Sync(ctx context.Context, p player.Player) (player.Player, bool, error) {
	if p.ExternalRef == "" {
		return player.Player{}, false, fmt.Errorf("external_ref is required")
	}

	existing, err := s.store.GetPlayerByExternalRef(ctx, p.ExternalRef)
	if err != nil {
		created, err := s.Create(ctx, p)
		if err != nil {
			return player.Player{}, false, err
		}
		return created, true, nil
	}

	existing.FirstName = strings.TrimSpace(p.FirstName)
	existing.LastName = strings.TrimSpace(p.LastName)
	existing.Team = strings.TrimSpace(strings.ToUpper(p.Team))
	existing.Position = p.Position
	existing.Price = p.Price
	existing.Ownership = p.Ownership
	if p.Status != "" {
		existing.Status = p.Status
	}

	updated, err := s.store.UpdatePlayer(ctx, existing)
	if err != nil {
		return player.Player{}, false, err
	}
	s.invalidateLists(ctx)
	return updated, false, nil
}

// Get returns one player by ID.
func (s *Service) Get(ctx context.Context, id string) (player.Player, error) {
	return s.store.GetPlayer(ctx, id)
}

// GetByExternalRef returns the player keyed by the stats feed reference.
func (s *Service) GetByExternalRef(ctx context.Context, ref string) (player.Player, error) {
	return s.store.GetPlayerByExternalRef(ctx, ref)
}

// List returns players matching the filter. Unfiltered listings are served
// from cache when warm.
func (s *Service) List(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	cacheable := filter == player.Filter{}
	key := cache.Key("players", "all")

	if cacheable {
		var cached []player.Player
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	result, err := s.store.ListPlayers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.SetJSON(ctx, key, result, listCacheTTL); err != nil {
			s.log.WithError(err).Warn("cache player list")
		}
	}
	return result, nil
}

// UpdateDetails patches mutable player fields. Nil fields are left unchanged.
func (s *Service) UpdateDetails(ctx context.Context, id string, price *int, status *player.Status, ownership *float64) (player.Player, error) {
	p, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return player.Player{}, err
	}

	if price != nil {
		if *price < 0 {
			return player.Player{}, fmt.Errorf("price cannot be negative")
		}
		p.Price = *price
	}
	if status != nil {
		switch *status {
		case player.StatusAvailable, player.StatusInjured, player.StatusSuspended, player.StatusOmitted:
			p.Status = *status
		default:
			return player.Player{}, fmt.Errorf("unsupported status %s", *status)
		}
	}
	if ownership != nil {
		if *ownership < 0 || *ownership > 100 {
			return player.Player{}, fmt.Errorf("ownership_percent must be within [0,100]")
		}
		p.Ownership = *ownership
	}

	updated, err := s.store.UpdatePlayer(ctx, p)
	if err != nil {
		return player.Player{}, err
	}
	s.invalidateLists(ctx)
	s.log.WithField("player_id", id).Info("player updated")
	return updated, nil
}

// RecordScore stores a round score and refreshes the player's season average
// and games played. Re-recording a round replaces the previous score.
func (s *Service) RecordScore(ctx context.Context, score player.RoundScore) (player.RoundScore, error) {
	if score.Round <= 0 {
		return player.RoundScore{}, fmt.Errorf("round must be positive")
	}
	if score.Score < 0 {
		return player.RoundScore{}, fmt.Errorf("score cannot be negative")
	}

	p, err := s.store.GetPlayer(ctx, score.PlayerID)
	if err != nil {
		return player.RoundScore{}, err
	}

	saved, err := s.store.UpsertRoundScore(ctx, score)
	if err != nil {
		return player.RoundScore{}, err
	}

	scores, err := s.store.ListRoundScores(ctx, p.ID)
	if err != nil {
		return player.RoundScore{}, err
	}
	total := 0
	for _, sc := range scores {
		total += sc.Score
	}
	p.GamesPlayed = len(scores)
	if p.GamesPlayed > 0 {
		p.Average = float64(total) / float64(p.GamesPlayed)
	}
	if _, err := s.store.UpdatePlayer(ctx, p); err != nil {
		return player.RoundScore{}, err
	}

	s.invalidateLists(ctx)
	s.log.WithField("player_id", p.ID).
		WithField("round", score.Round).
		WithField("score", score.Score).
		Info("round score recorded")
	return saved, nil
}

// Scores lists all recorded round scores for a player, oldest first.
func (s *Service) Scores(ctx context.Context, playerID string) ([]player.RoundScore, error) {
	if _, err := s.store.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	return s.store.ListRoundScores(ctx, playerID)
}

// ScoresForRound lists every player's score for a round.
func (s *Service) ScoresForRound(ctx context.Context, round int) ([]player.RoundScore, error) {
	return s.store.ListScoresForRound(ctx, round)
}

func (s *Service) invalidateLists(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.Key("players", "all")); err != nil {
		s.log.WithError(err).Warn("invalidate player list cache")
	}
}
