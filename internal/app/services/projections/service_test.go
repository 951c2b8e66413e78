package projections

import (
	"context"
	"testing"

	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/projection"
	"github.com/afl-fantasy/platform/internal/app/storage/memory"
)

func TestComputeRoundPersistsProjections(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil, nil)
	ctx := context.Background()

	p, err := store.CreatePlayer(ctx, player.Player{
		LastName: "Bont", Team: "WB", Position: player.Midfield,
		Price: 1000000, Average: 110, Status: player.StatusAvailable,
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	for round, score := range map[int]int{1: 100, 2: 115, 3: 120} {
		if _, err := store.UpsertRoundScore(ctx, player.RoundScore{
			PlayerID: p.ID, Round: round, Score: score, Opponent: "GEE",
		}); err != nil {
			t.Fatalf("seed score: %v", err)
		}
	}

	computed, err := svc.ComputeRound(ctx, 4)
	if err != nil {
		t.Fatalf("compute round: %v", err)
	}
	if computed != 1 {
		t.Fatalf("expected 1 projection, got %d", computed)
	}

	proj, err := svc.Get(ctx, p.ID, 4)
	if err != nil {
		t.Fatalf("get projection: %v", err)
	}
	if proj.AlgorithmVersion != projection.AlgorithmVersion {
		t.Fatalf("unexpected version %s", proj.AlgorithmVersion)
	}
	if proj.ProjectedScore <= 0 {
		t.Fatalf("expected positive projection, got %v", proj.ProjectedScore)
	}
	if proj.ComputedAt.IsZero() {
		t.Fatal("expected computed_at to be stamped")
	}
}

func TestComputeRoundRecomputesInPlace(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil, nil)
	ctx := context.Background()

	p, err := store.CreatePlayer(ctx, player.Player{
		LastName: "English", Team: "WB", Position: player.Ruck,
		Price: 900000, Average: 100, Status: player.StatusAvailable,
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	if _, err := svc.ComputeRound(ctx, 2); err != nil {
		t.Fatalf("first compute: %v", err)
	}
	first, err := svc.Get(ctx, p.ID, 2)
	if err != nil {
		t.Fatalf("get projection: %v", err)
	}

	// A big round-1 score shifts the recomputed projection.
	if _, err := store.UpsertRoundScore(ctx, player.RoundScore{
		PlayerID: p.ID, Round: 1, Score: 160,
	}); err != nil {
		t.Fatalf("seed score: %v", err)
	}
	if _, err := svc.ComputeRound(ctx, 2); err != nil {
		t.Fatalf("second compute: %v", err)
	}
	second, err := svc.Get(ctx, p.ID, 2)
	if err != nil {
		t.Fatalf("get recomputed projection: %v", err)
	}

	if second.ProjectedScore <= first.ProjectedScore {
		t.Fatalf("expected projection to rise: %v -> %v", first.ProjectedScore, second.ProjectedScore)
	}

	all, err := svc.ListRound(ctx, 2)
	if err != nil {
		t.Fatalf("list round: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected recompute to replace, got %d projections", len(all))
	}
}

func TestComputeRoundAppliesVenue(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil, nil)
	ctx := context.Background()

	home, err := store.CreatePlayer(ctx, player.Player{
		LastName: "Host", Team: "GEE", Position: player.Midfield,
		Price: 700000, Average: 100, Status: player.StatusAvailable,
	})
	if err != nil {
		t.Fatalf("create home player: %v", err)
	}
	away, err := store.CreatePlayer(ctx, player.Player{
		LastName: "Visitor", Team: "MEL", Position: player.Midfield,
		Price: 700000, Average: 100, Status: player.StatusAvailable,
	})
	if err != nil {
		t.Fatalf("create away player: %v", err)
	}

	if _, err := store.CreateFixture(ctx, fixture.Fixture{
		Round: 2, HomeTeam: "GEE", AwayTeam: "MEL", Status: fixture.StatusScheduled,
	}); err != nil {
		t.Fatalf("create fixture: %v", err)
	}

	if _, err := svc.ComputeRound(ctx, 2); err != nil {
		t.Fatalf("compute round: %v", err)
	}

	homeProj, err := svc.Get(ctx, home.ID, 2)
	if err != nil {
		t.Fatalf("get home projection: %v", err)
	}
	awayProj, err := svc.Get(ctx, away.ID, 2)
	if err != nil {
		t.Fatalf("get away projection: %v", err)
	}
	if homeProj.ProjectedScore <= awayProj.ProjectedScore {
		t.Fatalf("expected home advantage: home %v, away %v",
			homeProj.ProjectedScore, awayProj.ProjectedScore)
	}
}
