package projections

import (
	"math"
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/projection"
)

// Model parameters. MagicNumber is the AFL Fantasy price constant: price
// points per point of season-weighted average.
const (
	MagicNumber = 9750.0

	// priceAdjustRate is the fraction of the price gap closed per round.
	priceAdjustRate = 0.25

	// formWeight blends recent form against the season average.
	formWeight = 0.7

	trendThreshold = 5.0

	minOpponentFactor = 0.85
	maxOpponentFactor = 1.15

	homeVenueFactor = 1.02
	awayVenueFactor = 0.98
)

// weights over the last three scores, most recent first.
var recentWeights = []float64{0.5, 0.3, 0.2}

// Inputs carries everything the engine needs to project one player for one
// round. Assembling inputs is the service's job; the engine is pure.
type Inputs struct {
	Player         player.Player
	Scores         []player.RoundScore // ascending by round
	Round          int
	OpponentFactor float64 // 1.0 = league-average opponent
	VenueFactor    float64 // 1.0 = neutral venue
}

// Compute produces a projection for the given inputs. It is deterministic:
// the same inputs always yield the same projection (modulo timestamps).
func Compute(in Inputs) projection.Projection {
	proj := projection.Projection{
		PlayerID:         in.Player.ID,
		Round:            in.Round,
		AlgorithmVersion: projection.AlgorithmVersion,
		ComputedAt:       time.Now().UTC(),
		Trend:            projection.TrendStable,
	}

	opponent := clamp(in.OpponentFactor, minOpponentFactor, maxOpponentFactor)
	if in.OpponentFactor == 0 {
		opponent = 1.0
	}
	venue := in.VenueFactor
	if venue == 0 {
		venue = 1.0
	}

	recent := lastScores(in.Scores, len(recentWeights))

	base := in.Player.Average
	if len(recent) > 0 {
		form := weightedAverage(recent, recentWeights)
		if in.Player.Average > 0 {
			base = formWeight*form + (1-formWeight)*in.Player.Average
		} else {
			base = form
		}
	}

	score := base * opponent * venue

	// Unavailable players project to zero but keep their breakeven so price
	// pressure is still visible.
	if in.Player.Status != player.StatusAvailable {
		score = 0
	}

	sd := stddev(scoreValues(in.Scores))
	proj.ProjectedScore = round1(score)
	proj.Floor = round1(math.Max(0, score-1.2*sd))
	proj.Ceiling = round1(score + 1.5*sd)
	proj.Confidence = round2(confidence(len(in.Scores), sd, base))
	proj.Trend = trend(in.Scores)
	proj.Breakeven = breakeven(in.Player.Price, recent)
	proj.PriceChange = priceChange(in.Player.Price, recent, score)

	return proj
}

// breakeven is the score at which the player's price holds steady: the score
// that lifts the three-round average back to price/MagicNumber. The next
// round's window keeps the two most recent scores and drops the oldest, the
// same roll-forward priceChange assumes.
func breakeven(price int, recent []float64) int {
	target := float64(price) / MagicNumber * float64(len(recentWeights))
	sum := 0.0
	for i, v := range recent {
		if i >= len(recentWeights)-1 {
			break
		}
		sum += v
	}
	// With fewer than two prior scores the remaining slots count as zeros.
	return int(math.Round(target - sum))
}

// priceChange estimates next-round price movement assuming the player scores
// the projection.
func priceChange(price int, recent []float64, projected float64) int {
	window := append([]float64{projected}, recent...)
	if len(window) > len(recentWeights) {
		window = window[:len(recentWeights)]
	}
	avg := mean(window)
	newPrice := (1-priceAdjustRate)*float64(price) + priceAdjustRate*MagicNumber*avg
	return int(math.Round(newPrice - float64(price)))
}

func confidence(games int, sd, base float64) float64 {
	if games == 0 || base <= 0 {
		return 0.1
	}
	sample := math.Min(float64(games), 8) / 8 // saturates at 8 games
	variability := 1.0
	cv := sd / base
	if cv > 0 {
		variability = math.Max(0, 1-cv)
	}
	return clamp(0.25+0.5*sample*variability+0.2*sample, 0.1, 0.95)
}

func trend(scores []player.RoundScore) string {
	if len(scores) < 4 {
		return projection.TrendStable
	}
	values := scoreValues(scores)
	recent := mean(values[len(values)-2:])
	prior := mean(values[len(values)-4 : len(values)-2])
	switch {
	case recent-prior > trendThreshold:
		return projection.TrendImproving
	case prior-recent > trendThreshold:
		return projection.TrendDeclining
	}
	return projection.TrendStable
}

// lastScores returns up to n most recent score values, most recent first.
func lastScores(scores []player.RoundScore, n int) []float64 {
	var out []float64
	for i := len(scores) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, float64(scores[i].Score))
	}
	return out
}

func scoreValues(scores []player.RoundScore) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = float64(s.Score)
	}
	return out
}

func weightedAverage(values, weights []float64) float64 {
	var sum, weightSum float64
	for i, v := range values {
		w := weights[len(weights)-1]
		if i < len(weights) {
			w = weights[i]
		}
		sum += v * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
