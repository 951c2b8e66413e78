package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/fantasy"
	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/projection"
	"github.com/afl-fantasy/platform/internal/app/domain/user"
	"github.com/afl-fantasy/platform/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	players      map[string]player.Player
	playersByRef map[string]string
	scores       map[string]map[int]player.RoundScore
	fixtures     map[string]fixture.Fixture
	projections  map[string]projection.Projection
	squads       map[string]fantasy.Squad
	lineups      map[string]fantasy.Lineup
	trades       map[string][]fantasy.Trade
	users        map[string]user.User
	usersByEmail map[string]string
}

var _ storage.PlayerStore = (*Store)(nil)
var _ storage.FixtureStore = (*Store)(nil)
var _ storage.ProjectionStore = (*Store)(nil)
var _ storage.SquadStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		players:      make(map[string]player.Player),
		playersByRef: make(map[string]string),
		scores:       make(map[string]map[int]player.RoundScore),
		fixtures:     make(map[string]fixture.Fixture),
		projections:  make(map[string]projection.Projection),
		squads:       make(map[string]fantasy.Squad),
		lineups:      make(map[string]fantasy.Lineup),
		trades:       make(map[string][]fantasy.Trade),
		users:        make(map[string]user.User),
		usersByEmail: make(map[string]string),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func projectionKey(playerID string, round int) string {
	return fmt.Sprintf("%s:%d", playerID, round)
}

func lineupKey(squadID string, round int) string {
	return fmt.Sprintf("%s:%d", squadID, round)
}

// PlayerStore implementation ---------------------------------------------

func (s *Store) CreatePlayer(_ context.Context, p player.Player) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.players[p.ID]; exists {
		return player.Player{}, fmt.Errorf("player %s already exists", p.ID)
	}
	if p.ExternalRef != "" {
		if _, exists := s.playersByRef[p.ExternalRef]; exists {
			return player.Player{}, fmt.Errorf("player with external ref %s already exists", p.ExternalRef)
		}
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.players[p.ID] = p
	if p.ExternalRef != "" {
		s.playersByRef[p.ExternalRef] = p.ID
	}
	return p, nil
}

func (s *Store) UpdatePlayer(_ context.Context, p player.Player) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.players[p.ID]
	if !ok {
		return player.Player{}, fmt.Errorf("player %s not found", p.ID)
	}

	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	if original.ExternalRef != p.ExternalRef {
		delete(s.playersByRef, original.ExternalRef)
		if p.ExternalRef != "" {
			s.playersByRef[p.ExternalRef] = p.ID
		}
	}
	s.players[p.ID] = p
	return p, nil
}

func (s *Store) GetPlayer(_ context.Context, id string) (player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return player.Player{}, fmt.Errorf("player %s not found", id)
	}
	return p, nil
}

func (s *Store) GetPlayerByExternalRef(_ context.Context, ref string) (player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.playersByRef[ref]
	if !ok {
		return player.Player{}, fmt.Errorf("player with external ref %s not found", ref)
	}
	return s.players[id], nil
}

func (s *Store) ListPlayers(_ context.Context, filter player.Filter) ([]player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []player.Player
	for _, p := range s.players {
		if filter.Matches(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) UpsertRoundScore(_ context.Context, score player.RoundScore) (player.RoundScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[score.PlayerID]; !ok {
		return player.RoundScore{}, fmt.Errorf("player %s not found", score.PlayerID)
	}

	byRound, ok := s.scores[score.PlayerID]
	if !ok {
		byRound = make(map[int]player.RoundScore)
		s.scores[score.PlayerID] = byRound
	}

	now := time.Now().UTC()
	if existing, ok := byRound[score.Round]; ok {
		score.ID = existing.ID
		score.CreatedAt = existing.CreatedAt
	} else {
		score.ID = s.nextIDLocked()
		score.CreatedAt = now
	}
	if score.RecordedAt.IsZero() {
		score.RecordedAt = now
	}
	byRound[score.Round] = score
	return score, nil
}

func (s *Store) ListRoundScores(_ context.Context, playerID string) ([]player.RoundScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []player.RoundScore
	for _, score := range s.scores[playerID] {
		result = append(result, score)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Round < result[j].Round })
	return result, nil
}

func (s *Store) ListScoresForRound(_ context.Context, round int) ([]player.RoundScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []player.RoundScore
	for _, byRound := range s.scores {
		if score, ok := byRound[round]; ok {
			result = append(result, score)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PlayerID < result[j].PlayerID })
	return result, nil
}

// FixtureStore implementation --------------------------------------------

func (s *Store) CreateFixture(_ context.Context, f fixture.Fixture) (fixture.Fixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID == "" {
		f.ID = s.nextIDLocked()
	} else if _, exists := s.fixtures[f.ID]; exists {
		return fixture.Fixture{}, fmt.Errorf("fixture %s already exists", f.ID)
	}

	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = fixture.StatusScheduled
	}
	s.fixtures[f.ID] = f
	return f, nil
}

func (s *Store) UpdateFixture(_ context.Context, f fixture.Fixture) (fixture.Fixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.fixtures[f.ID]
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("fixture %s not found", f.ID)
	}
	f.CreatedAt = original.CreatedAt
	f.UpdatedAt = time.Now().UTC()
	s.fixtures[f.ID] = f
	return f, nil
}

func (s *Store) GetFixture(_ context.Context, id string) (fixture.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fixtures[id]
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("fixture %s not found", id)
	}
	return f, nil
}

func (s *Store) ListFixtures(_ context.Context, round int) ([]fixture.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []fixture.Fixture
	for _, f := range s.fixtures {
		if round == 0 || f.Round == round {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Round != result[j].Round {
			return result[i].Round < result[j].Round
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

// ProjectionStore implementation -----------------------------------------

func (s *Store) CreateProjection(_ context.Context, proj projection.Projection) (projection.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if proj.ID == "" {
		proj.ID = s.nextIDLocked()
	}
	proj.CreatedAt = time.Now().UTC()
	s.projections[projectionKey(proj.PlayerID, proj.Round)] = proj
	return proj, nil
}

func (s *Store) GetProjection(_ context.Context, playerID string, round int) (projection.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	proj, ok := s.projections[projectionKey(playerID, round)]
	if !ok {
		return projection.Projection{}, fmt.Errorf("projection for player %s round %d not found", playerID, round)
	}
	return proj, nil
}

func (s *Store) ListProjections(_ context.Context, round int) ([]projection.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []projection.Projection
	for _, proj := range s.projections {
		if proj.Round == round {
			result = append(result, proj)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProjectedScore > result[j].ProjectedScore })
	return result, nil
}

// SquadStore implementation ----------------------------------------------

func (s *Store) CreateSquad(_ context.Context, squad fantasy.Squad) (fantasy.Squad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if squad.ID == "" {
		squad.ID = s.nextIDLocked()
	} else if _, exists := s.squads[squad.ID]; exists {
		return fantasy.Squad{}, fmt.Errorf("squad %s already exists", squad.ID)
	}

	now := time.Now().UTC()
	squad.CreatedAt = now
	squad.UpdatedAt = now
	squad.PlayerIDs = append([]string(nil), squad.PlayerIDs...)
	s.squads[squad.ID] = squad
	return cloneSquad(squad), nil
}

func (s *Store) UpdateSquad(_ context.Context, squad fantasy.Squad) (fantasy.Squad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.squads[squad.ID]
	if !ok {
		return fantasy.Squad{}, fmt.Errorf("squad %s not found", squad.ID)
	}
	squad.UserID = original.UserID
	squad.CreatedAt = original.CreatedAt
	squad.UpdatedAt = time.Now().UTC()
	squad.PlayerIDs = append([]string(nil), squad.PlayerIDs...)
	s.squads[squad.ID] = squad
	return cloneSquad(squad), nil
}

func (s *Store) GetSquad(_ context.Context, id string) (fantasy.Squad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	squad, ok := s.squads[id]
	if !ok {
		return fantasy.Squad{}, fmt.Errorf("squad %s not found", id)
	}
	return cloneSquad(squad), nil
}

func (s *Store) ListSquads(_ context.Context, userID string) ([]fantasy.Squad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []fantasy.Squad
	for _, squad := range s.squads {
		if userID == "" || squad.UserID == userID {
			result = append(result, cloneSquad(squad))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) SaveLineup(_ context.Context, lineup fantasy.Lineup) (fantasy.Lineup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.squads[lineup.SquadID]; !ok {
		return fantasy.Lineup{}, fmt.Errorf("squad %s not found", lineup.SquadID)
	}

	now := time.Now().UTC()
	key := lineupKey(lineup.SquadID, lineup.Round)
	if existing, ok := s.lineups[key]; ok {
		lineup.ID = existing.ID
		lineup.CreatedAt = existing.CreatedAt
	} else {
		lineup.ID = s.nextIDLocked()
		lineup.CreatedAt = now
	}
	lineup.UpdatedAt = now
	lineup.OnField = append([]string(nil), lineup.OnField...)
	s.lineups[key] = lineup
	return lineup, nil
}

func (s *Store) GetLineup(_ context.Context, squadID string, round int) (fantasy.Lineup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lineup, ok := s.lineups[lineupKey(squadID, round)]
	if !ok {
		return fantasy.Lineup{}, fmt.Errorf("lineup for squad %s round %d not found", squadID, round)
	}
	return lineup, nil
}

func (s *Store) CreateTrade(_ context.Context, trade fantasy.Trade) (fantasy.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trade.ID == "" {
		trade.ID = s.nextIDLocked()
	}
	if trade.ExecutedAt.IsZero() {
		trade.ExecutedAt = time.Now().UTC()
	}
	s.trades[trade.SquadID] = append(s.trades[trade.SquadID], trade)
	return trade, nil
}

func (s *Store) ListTrades(_ context.Context, squadID string, round int) ([]fantasy.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []fantasy.Trade
	for _, trade := range s.trades[squadID] {
		if round == 0 || trade.Round == round {
			result = append(result, trade)
		}
	}
	return result, nil
}

// UserStore implementation -----------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return user.User{}, fmt.Errorf("user with email %s already exists", u.Email)
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, fmt.Errorf("user with email %s not found", email)
	}
	return s.users[id], nil
}

func cloneSquad(squad fantasy.Squad) fantasy.Squad {
	squad.PlayerIDs = append([]string(nil), squad.PlayerIDs...)
	return squad
}
