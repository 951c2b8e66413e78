// Package player defines the AFL player domain model.
package player

import "time"

// Position is a player's fantasy position.
type Position string

const (
	Defender Position = "DEF"
	Midfield Position = "MID"
	Ruck     Position = "RUC"
	Forward  Position = "FWD"
)

// Valid reports whether the position is one of the four fantasy positions.
func (p Position) Valid() bool {
	switch p {
	case Defender, Midfield, Ruck, Forward:
		return true
	}
	return false
}

// Status is a player's availability for the upcoming round.
type Status string

const (
	StatusAvailable Status = "available"
	StatusInjured   Status = "injured"
	StatusSuspended Status = "suspended"
	StatusOmitted   Status = "omitted"
)

// Player represents one AFL player tracked by the platform.
type Player struct {
	ID          string    `json:"id"`
	ExternalRef string    `json:"external_ref,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Team        string    `json:"team"`
	Position    Position  `json:"position"`
	Price       int       `json:"price"`
	Average     float64   `json:"average"`
	Breakeven   int       `json:"breakeven"`
	Ownership   float64   `json:"ownership_percent"`
	Status      Status    `json:"status"`
	GamesPlayed int       `json:"games_played"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName returns the player's display name.
func (p Player) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// RoundScore is one player's fantasy score for one round.
type RoundScore struct {
	ID           string    `json:"id"`
	PlayerID     string    `json:"player_id"`
	Round        int       `json:"round"`
	Opponent     string    `json:"opponent"`
	Venue        string    `json:"venue"`
	Score        int       `json:"score"`
	TimeOnGround float64   `json:"time_on_ground_percent"`
	RecordedAt   time.Time `json:"recorded_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter narrows player listings.
type Filter struct {
	Team     string
	Position Position
	Status   Status
	MaxPrice int
}

// Matches reports whether the player satisfies every set filter field.
func (f Filter) Matches(p Player) bool {
	if f.Team != "" && f.Team != p.Team {
		return false
	}
	if f.Position != "" && f.Position != p.Position {
		return false
	}
	if f.Status != "" && f.Status != p.Status {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	return true
}
