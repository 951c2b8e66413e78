// Package trades scores proposed player trades.
package trades

import (
	"context"
	"fmt"

	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/projection"
	"github.com/afl-fantasy/platform/internal/app/metrics"
	"github.com/afl-fantasy/platform/internal/app/storage"
	"github.com/afl-fantasy/platform/internal/logging"
)

// Verdict classifies a proposed trade.
type Verdict string

const (
	VerdictUpgrade   Verdict = "upgrade"
	VerdictSideways  Verdict = "sideways"
	VerdictDowngrade Verdict = "downgrade"
)

// Analysis is the full result of analyzing one proposed trade.
type Analysis struct {
	PlayerOut      player.Player          `json:"player_out"`
	PlayerIn       player.Player          `json:"player_in"`
	Round          int                    `json:"round"`
	PointsDelta    float64                `json:"projected_points_delta"`
	CashDelta      int                    `json:"cash_delta"`
	BreakevenDelta int                    `json:"breakeven_delta"`
	Verdict        Verdict                `json:"verdict"`
	RiskFlags      []string               `json:"risk_flags,omitempty"`
	OutProjection  *projection.Projection `json:"out_projection,omitempty"`
	InProjection   *projection.Projection `json:"in_projection,omitempty"`
}

// sidewaysBand is the projected-points band treated as a sideways trade.
const sidewaysBand = 5.0

// Service analyzes trades using stored projections.
type Service struct {
	players     storage.PlayerStore
	projections storage.ProjectionStore
	log         *logging.Logger
}

// New constructs a trade analysis service.
func New(players storage.PlayerStore, projections storage.ProjectionStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("trades")
	}
	return &Service{players: players, projections: projections, log: log}
}

// Analyze scores the proposed out→in trade for a round.
func (s *Service) Analyze(ctx context.Context, outID, inID string, round int) (Analysis, error) {
	if outID == "" || inID == "" {
		return Analysis{}, fmt.Errorf("player_out_id and player_in_id are required")
	}
	if outID == inID {
		return Analysis{}, fmt.Errorf("cannot trade a player for themselves")
	}
	if round <= 0 {
		return Analysis{}, fmt.Errorf("round must be positive")
	}

	out, err := s.players.GetPlayer(ctx, outID)
	if err != nil {
		return Analysis{}, fmt.Errorf("player out: %w", err)
	}
	in, err := s.players.GetPlayer(ctx, inID)
	if err != nil {
		return Analysis{}, fmt.Errorf("player in: %w", err)
	}

	analysis := Analysis{
		PlayerOut: out,
		PlayerIn:  in,
		Round:     round,
		CashDelta: out.Price - in.Price,
	}

	outScore := out.Average
	inScore := in.Average
	if proj, err := s.projections.GetProjection(ctx, out.ID, round); err == nil {
		analysis.OutProjection = &proj
		outScore = proj.ProjectedScore
	}
	if proj, err := s.projections.GetProjection(ctx, in.ID, round); err == nil {
		analysis.InProjection = &proj
		inScore = proj.ProjectedScore
	}
	analysis.PointsDelta = inScore - outScore
	analysis.BreakevenDelta = breakevenOf(analysis.InProjection, in) - breakevenOf(analysis.OutProjection, out)

	switch {
	case analysis.PointsDelta > sidewaysBand:
		analysis.Verdict = VerdictUpgrade
	case analysis.PointsDelta < -sidewaysBand:
		analysis.Verdict = VerdictDowngrade
	default:
		analysis.Verdict = VerdictSideways
	}

	analysis.RiskFlags = riskFlags(in, analysis.InProjection)

	metrics.RecordTradeAnalysis()
	s.log.WithField("player_out", out.ID).
		WithField("player_in", in.ID).
		WithField("verdict", string(analysis.Verdict)).
		Info("trade analyzed")
	return analysis, nil
}

func breakevenOf(proj *projection.Projection, p player.Player) int {
	if proj != nil {
		return proj.Breakeven
	}
	return p.Breakeven
}

func riskFlags(in player.Player, proj *projection.Projection) []string {
	var flags []string
	if in.Status != player.StatusAvailable {
		flags = append(flags, "target_"+string(in.Status))
	}
	if proj != nil {
		if proj.Confidence < 0.4 {
			flags = append(flags, "low_confidence")
		}
		if proj.Trend == projection.TrendDeclining {
			flags = append(flags, "declining_form")
		}
		if proj.Breakeven > int(proj.ProjectedScore) {
			flags = append(flags, "breakeven_above_projection")
		}
	}
	if in.GamesPlayed < 3 {
		flags = append(flags, "small_sample")
	}
	return flags
}
