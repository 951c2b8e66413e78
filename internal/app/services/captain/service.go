// Package captain ranks captain and vice-captain picks for a round.
package captain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/logging"
)

// ceilingWeight biases the captain score towards high-ceiling players; the
// doubled captain score rewards upside over consistency.
const ceilingWeight = 0.35

// Suggestion is one ranked captain candidate.
type Suggestion struct {
	Player         player.Player `json:"player"`
	ProjectedScore float64       `json:"projected_score"`
	Ceiling        float64       `json:"ceiling"`
	CaptainScore   float64       `json:"captain_score"`
	Confidence     float64       `json:"confidence"`
	LoopholeViable bool          `json:"loophole_viable"`
}

// Service produces captain suggestions from stored projections.
type Service struct {
	players     storage.PlayerStore
	projections storage.ProjectionStore
	fixtures    storage.FixtureStore
	log         *logging.Logger
}

// New constructs a captain service.
func New(players storage.PlayerStore, projections storage.ProjectionStore, fixtures storage.FixtureStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("captain")
	}
	return &Service{players: players, projections: projections, fixtures: fixtures, log: log}
}

// Suggest returns up to limit captain candidates for the round, best first.
// Candidates are restricted to the given player IDs when provided (a user's
// squad); otherwise the whole player pool is ranked.
func (s *Service) Suggest(ctx context.Context, round int, playerIDs []string, limit int) ([]Suggestion, error) {
	if round <= 0 {
		return nil, fmt.Errorf("round must be positive")
	}
	if limit <= 0 {
		limit = 10
	}

	projections, err := s.projections.ListProjections(ctx, round)
	if err != nil {
		return nil, err
	}

	restrict := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		restrict[id] = true
	}

	roundFixtures, err := s.fixtures.ListFixtures(ctx, round)
	if err != nil {
		return nil, err
	}
	firstGame := firstStartByTeam(roundFixtures)

	var suggestions []Suggestion
	for _, proj := range projections {
		if len(restrict) > 0 && !restrict[proj.PlayerID] {
			continue
		}
		p, err := s.players.GetPlayer(ctx, proj.PlayerID)
		if err != nil {
			continue
		}
		if p.Status != player.StatusAvailable {
			continue
		}

		suggestion := Suggestion{
			Player:         p,
			ProjectedScore: proj.ProjectedScore,
			Ceiling:        proj.Ceiling,
			Confidence:     proj.Confidence,
			CaptainScore:   (1-ceilingWeight)*proj.ProjectedScore + ceilingWeight*proj.Ceiling,
		}

		// Loophole: the candidate plays in the round's opening fixture, so a
		// vice-captain score is banked before later captains take the field.
		if start, ok := firstGame[p.Team]; ok {
			earliest := true
			for _, other := range firstGame {
				if other.Before(start) {
					earliest = false
					break
				}
			}
			suggestion.LoopholeViable = earliest
		}

		suggestions = append(suggestions, suggestion)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].CaptainScore > suggestions[j].CaptainScore
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func firstStartByTeam(fixtures []fixture.Fixture) map[string]time.Time {
	starts := make(map[string]time.Time)
	for _, f := range fixtures {
		for _, team := range []string{f.HomeTeam, f.AwayTeam} {
			if existing, ok := starts[team]; !ok || f.StartTime.Before(existing) {
				starts[team] = f.StartTime
			}
		}
	}
	return starts
}
