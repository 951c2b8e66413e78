// Package scores publishes live round scores and computes squad totals.
package scores

import (
	"context"
	"fmt"

	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/services/players"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/logging"
)

// Service records live scores and broadcasts them to subscribers.
type Service struct {
	players *players.Service
	squads  storage.SquadStore
	hub     *Hub
	log     *logging.Logger
}

// SquadTotal is the scored result of a squad for one round.
type SquadTotal struct {
	SquadID       string       `json:"squad_id"`
	Round         int          `json:"round"`
	Total         int          `json:"total"`
	CaptainID     string       `json:"captain_id,omitempty"`
	CaptainScore  int          `json:"captain_score"`
	PlayersScored int          `json:"players_scored"`
	Lines         []PlayerLine `json:"lines"`
}

// PlayerLine is a single player's contribution to a squad total.
type PlayerLine struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Doubled  bool   `json:"doubled"`
}

// New constructs a live score service. The hub may be nil when no
// websocket surface is exposed.
func New(playerSvc *players.Service, squads storage.SquadStore, hub *Hub, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("scores")
	}
	return &Service{players: playerSvc, squads: squads, hub: hub, log: log}
}

// Hub exposes the websocket hub for HTTP wiring.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Record stores a round score and pushes it to live subscribers.
func (s *Service) Record(ctx context.Context, score player.RoundScore) (player.RoundScore, error) {
	saved, err := s.players.RecordScore(ctx, score)
	if err != nil {
		return player.RoundScore{}, err
	}
	if s.hub != nil {
		s.hub.Broadcast(Event{Type: "score", Round: saved.Round, Payload: saved})
	}
	return saved, nil
}

// RoundScores lists every recorded score for a round.
func (s *Service) RoundScores(ctx context.Context, round int) ([]player.RoundScore, error) {
	return s.players.ScoresForRound(ctx, round)
}

// SquadTotal computes a squad's score for a round from its saved lineup.
// The captain's score counts double; when the captain has no recorded
// score the vice-captain is doubled instead.
func (s *Service) SquadTotal(ctx context.Context, squadID string, round int) (SquadTotal, error) {
	if round <= 0 {
		return SquadTotal{}, fmt.Errorf("round must be positive")
	}
	lineup, err := s.squads.GetLineup(ctx, squadID, round)
	if err != nil {
		return SquadTotal{}, fmt.Errorf("lineup for round %d: %w", round, err)
	}

	recorded, err := s.players.ScoresForRound(ctx, round)
	if err != nil {
		return SquadTotal{}, err
	}
	byPlayer := make(map[string]int, len(recorded))
	for _, sc := range recorded {
		byPlayer[sc.PlayerID] = sc.Score
	}

	doubledID := lineup.CaptainID
	if _, ok := byPlayer[doubledID]; !ok && lineup.ViceCaptainID != "" {
		if _, ok := byPlayer[lineup.ViceCaptainID]; ok {
			doubledID = lineup.ViceCaptainID
		}
	}

	total := SquadTotal{SquadID: squadID, Round: round, CaptainID: doubledID}
	for _, id := range lineup.OnField {
		score, ok := byPlayer[id]
		if !ok {
			continue
		}
		line := PlayerLine{PlayerID: id, Score: score}
		if id == doubledID {
			score *= 2
			line.Doubled = true
			total.CaptainScore = score
		}
		total.Total += score
		total.PlayersScored++
		total.Lines = append(total.Lines, line)
	}
	return total, nil
}
