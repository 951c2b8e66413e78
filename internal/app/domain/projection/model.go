// Package projection defines projected player performance for a round.
package projection

import "time"

// AlgorithmVersion identifies the projection engine revision that produced a
// projection. Bumped whenever the weighting model changes.
const AlgorithmVersion = "v3.4.4"

// Projection is a forward-looking score estimate for one player in one round.
type Projection struct {
	ID               string    `json:"id"`
	PlayerID         string    `json:"player_id"`
	Round            int       `json:"round"`
	ProjectedScore   float64   `json:"projected_score"`
	Floor            float64   `json:"floor"`
	Ceiling          float64   `json:"ceiling"`
	Confidence       float64   `json:"confidence"`
	Breakeven        int       `json:"breakeven"`
	PriceChange      int       `json:"price_change_estimate"`
	Trend            string    `json:"trend"`
	AlgorithmVersion string    `json:"algorithm_version"`
	ComputedAt       time.Time `json:"computed_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// Trend values describe recent form direction.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)
