// Package fixture defines the AFL fixture domain model.
package fixture

import "time"

// Status tracks a fixture's progress.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusComplete  Status = "complete"
)

// Fixture represents one AFL match in a round.
type Fixture struct {
	ID        string    `json:"id"`
	Round     int       `json:"round"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Venue     string    `json:"venue"`
	StartTime time.Time `json:"start_time"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Involves reports whether the given team plays in this fixture.
func (f Fixture) Involves(team string) bool {
	return f.HomeTeam == team || f.AwayTeam == team
}

// OpponentOf returns the opposing team, or empty if the team does not play.
func (f Fixture) OpponentOf(team string) string {
	switch team {
	case f.HomeTeam:
		return f.AwayTeam
	case f.AwayTeam:
		return f.HomeTeam
	}
	return ""
}
