// Package fantasy defines user squads, lineups and trades.
package fantasy

import (
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/player"
)

// Salary cap and squad shape for a standard AFL Fantasy squad.
const (
	SalaryCap      = 15_800_000
	TradesPerRound = 2
	SquadSize      = 30
)

// PositionQuota is the number of squad slots per fantasy position.
var PositionQuota = map[player.Position]int{
	player.Defender: 8,
	player.Midfield: 10,
	player.Ruck:     4,
	player.Forward:  8,
}

// Squad is one user's fantasy squad.
type Squad struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	PlayerIDs []string  `json:"player_ids"`
	Bank      int       `json:"bank"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lineup is the on-field selection for one round.
type Lineup struct {
	ID            string    `json:"id"`
	SquadID       string    `json:"squad_id"`
	Round         int       `json:"round"`
	OnField       []string  `json:"on_field"`
	CaptainID     string    `json:"captain_id"`
	ViceCaptainID string    `json:"vice_captain_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Trade records one executed trade within a round.
type Trade struct {
	ID          string    `json:"id"`
	SquadID     string    `json:"squad_id"`
	Round       int       `json:"round"`
	PlayerOutID string    `json:"player_out_id"`
	PlayerInID  string    `json:"player_in_id"`
	CashDelta   int       `json:"cash_delta"`
	ExecutedAt  time.Time `json:"executed_at"`
}
