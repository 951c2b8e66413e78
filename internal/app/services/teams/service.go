// Package teams manages user fantasy squads, lineups and trade execution.
package teams

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/afl-fantasy/platform/internal/app/domain/fantasy"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/logging"
)

// ErrTradeLimit is returned when a squad has used its trades for the round.
var ErrTradeLimit = fmt.Errorf("trade limit of %d per round reached", fantasy.TradesPerRound)

// Service manages fantasy squads.
type Service struct {
	users   storage.UserStore
	players storage.PlayerStore
	store   storage.SquadStore
	log     *logging.Logger

	mu      sync.Mutex
	squadMu map[string]*sync.Mutex
}

// New constructs a squad service.
func New(users storage.UserStore, players storage.PlayerStore, store storage.SquadStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("teams")
	}
	return &Service{
		users:   users,
		players: players,
		store:   store,
		log:     log,
		squadMu: make(map[string]*sync.Mutex),
	}
}

// lockSquad returns the mutex serializing mutations of one squad.
func (s *Service) lockSquad(squadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.squadMu[squadID]
	if !ok {
		m = &sync.Mutex{}
		s.squadMu[squadID] = m
	}
	return m
}

// Create builds a squad for a user. The initial squad must respect the
// salary cap and position quotas; the unspent balance becomes the bank.
func (s *Service) Create(ctx context.Context, userID, name string, playerIDs []string) (fantasy.Squad, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fantasy.Squad{}, fmt.Errorf("name is required")
	}
	if userID == "" {
		return fantasy.Squad{}, fmt.Errorf("user_id is required")
	}
	if s.users != nil {
		if _, err := s.users.GetUser(ctx, userID); err != nil {
			return fantasy.Squad{}, fmt.Errorf("user validation failed: %w", err)
		}
	}

	roster, totalPrice, err := s.resolveRoster(ctx, playerIDs)
	if err != nil {
		return fantasy.Squad{}, err
	}
	if err := validateRoster(roster); err != nil {
		return fantasy.Squad{}, err
	}
	if totalPrice > fantasy.SalaryCap {
		return fantasy.Squad{}, fmt.Errorf("squad cost %d exceeds salary cap %d", totalPrice, fantasy.SalaryCap)
	}

	squad := fantasy.Squad{
		UserID:    userID,
		Name:      name,
		PlayerIDs: playerIDs,
		Bank:      fantasy.SalaryCap - totalPrice,
	}
	created, err := s.store.CreateSquad(ctx, squad)
	if err != nil {
		return fantasy.Squad{}, err
	}
	s.log.WithField("squad_id", created.ID).
		WithField("user_id", userID).
		WithField("bank", created.Bank).
		Info("squad created")
	return created, nil
}

// Get returns a squad by ID.
func (s *Service) Get(ctx context.Context, id string) (fantasy.Squad, error) {
	return s.store.GetSquad(ctx, id)
}

// ListForUser returns all squads belonging to a user.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]fantasy.Squad, error) {
	return s.store.ListSquads(ctx, userID)
}

// SaveLineup stores the on-field selection for a round. Captain and vice
// must be distinct squad members named in the on-field list.
func (s *Service) SaveLineup(ctx context.Context, lineup fantasy.Lineup) (fantasy.Lineup, error) {
	if lineup.Round <= 0 {
		return fantasy.Lineup{}, fmt.Errorf("round must be positive")
	}
	squad, err := s.store.GetSquad(ctx, lineup.SquadID)
	if err != nil {
		return fantasy.Lineup{}, err
	}

	members := make(map[string]bool, len(squad.PlayerIDs))
	for _, id := range squad.PlayerIDs {
		members[id] = true
	}
	onField := make(map[string]bool, len(lineup.OnField))
	for _, id := range lineup.OnField {
		if !members[id] {
			return fantasy.Lineup{}, fmt.Errorf("player %s is not in the squad", id)
		}
		if onField[id] {
			return fantasy.Lineup{}, fmt.Errorf("player %s selected twice", id)
		}
		onField[id] = true
	}

	if lineup.CaptainID == "" {
		return fantasy.Lineup{}, fmt.Errorf("captain_id is required")
	}
	if !onField[lineup.CaptainID] {
		return fantasy.Lineup{}, fmt.Errorf("captain must be in the on-field lineup")
	}
	if lineup.ViceCaptainID != "" {
		if lineup.ViceCaptainID == lineup.CaptainID {
			return fantasy.Lineup{}, fmt.Errorf("captain and vice-captain must differ")
		}
		if !onField[lineup.ViceCaptainID] {
			return fantasy.Lineup{}, fmt.Errorf("vice-captain must be in the on-field lineup")
		}
	}

	saved, err := s.store.SaveLineup(ctx, lineup)
	if err != nil {
		return fantasy.Lineup{}, err
	}
	s.log.WithField("squad_id", lineup.SquadID).
		WithField("round", lineup.Round).
		Info("lineup saved")
	return saved, nil
}

// Lineup returns the saved lineup for a squad and round.
func (s *Service) Lineup(ctx context.Context, squadID string, round int) (fantasy.Lineup, error) {
	return s.store.GetLineup(ctx, squadID, round)
}

// ExecuteTrade swaps one squad player for another, respecting the per-round
// trade cap, the bank and position quotas.
func (s *Service) ExecuteTrade(ctx context.Context, squadID string, round int, outID, inID string) (fantasy.Trade, fantasy.Squad, error) {
	if round <= 0 {
		return fantasy.Trade{}, fantasy.Squad{}, fmt.Errorf("round must be positive")
	}

	// The cap check and the squad update must not interleave across
	// concurrent requests for the same squad.
	lock := s.lockSquad(squadID)
	lock.Lock()
	defer lock.Unlock()

	squad, err := s.store.GetSquad(ctx, squadID)
	if err != nil {
		return fantasy.Trade{}, fantasy.Squad{}, err
	}

	executed, err := s.store.ListTrades(ctx, squadID, round)
	if err != nil {
		return fantasy.Trade{}, fantasy.Squad{}, err
	}
	if len(executed) >= fantasy.TradesPerRound {
		return fantasy.Trade{}, fantasy.Squad{}, ErrTradeLimit
	}

	outIdx := -1
	for i, id := range squad.PlayerIDs {
		if id == outID {
			outIdx = i
		}
		if id == inID {
			return fantasy.Trade{}, fantasy.Squad{}, fmt.Errorf("player %s is already in the squad", inID)
		}
	}
	if outIdx < 0 {
		return fantasy.Trade{}, fantasy.Squad{}, fmt.Errorf("player %s is not in the squad", outID)
	}

	out, err := s.players.GetPlayer(ctx, outID)
	if err != nil {
		return fantasy.Trade{}, fantasy.Squad{}, fmt.Errorf("player out: %w", err)
	}
	in, err := s.players.GetPlayer(ctx, inID)
	if err != nil {
		return fantasy.Trade{}, fantasy.Squad{}, fmt.Errorf("player in: %w", err)
	}
	if out.Position != in.Position {
		return fantasy.Trade{}, fantasy.Squad{}, fmt.Errorf("trade must keep position quotas: %s out, %s in", out.Position, in.Position)
	}

	cashDelta := out.Price - in.Price
	if squad.Bank+cashDelta < 0 {
		return fantasy.Trade{}, fantasy.Squad{}, fmt.Errorf("insufficient bank: have %d, need %d", squad.Bank, -cashDelta)
	}

	squad.PlayerIDs[outIdx] = inID
	squad.Bank += cashDelta
	updated, err := s.store.UpdateSquad(ctx, squad)
	if err != nil {
		return fantasy.Trade{}, fantasy.Squad{}, err
	}

	trade, err := s.store.CreateTrade(ctx, fantasy.Trade{
		SquadID:     squadID,
		Round:       round,
		PlayerOutID: outID,
		PlayerInID:  inID,
		CashDelta:   cashDelta,
	})
	if err != nil {
		return fantasy.Trade{}, fantasy.Squad{}, err
	}

	s.log.WithField("squad_id", squadID).
		WithField("round", round).
		WithField("player_out", outID).
		WithField("player_in", inID).
		Info("trade executed")
	return trade, updated, nil
}

// Trades lists executed trades for a squad; round 0 lists all rounds.
func (s *Service) Trades(ctx context.Context, squadID string, round int) ([]fantasy.Trade, error) {
	if _, err := s.store.GetSquad(ctx, squadID); err != nil {
		return nil, err
	}
	return s.store.ListTrades(ctx, squadID, round)
}

func (s *Service) resolveRoster(ctx context.Context, playerIDs []string) ([]player.Player, int, error) {
	if len(playerIDs) == 0 {
		return nil, 0, fmt.Errorf("player_ids are required")
	}
	if len(playerIDs) > fantasy.SquadSize {
		return nil, 0, fmt.Errorf("squad cannot exceed %d players", fantasy.SquadSize)
	}

	seen := make(map[string]bool, len(playerIDs))
	roster := make([]player.Player, 0, len(playerIDs))
	total := 0
	for _, id := range playerIDs {
		if seen[id] {
			return nil, 0, fmt.Errorf("player %s listed twice", id)
		}
		seen[id] = true
		p, err := s.players.GetPlayer(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		roster = append(roster, p)
		total += p.Price
	}
	return roster, total, nil
}

func validateRoster(roster []player.Player) error {
	counts := make(map[player.Position]int)
	for _, p := range roster {
		counts[p.Position]++
	}
	for pos, count := range counts {
		if quota, ok := fantasy.PositionQuota[pos]; ok && count > quota {
			return fmt.Errorf("too many %s players: %d exceeds quota %d", pos, count, quota)
		}
	}
	return nil
}
