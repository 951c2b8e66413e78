package scores

import (
	"context"
	"testing"

	"github.com/afl-fantasy/platform/internal/app/domain/fantasy"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/services/players"
	"github.com/afl-fantasy/platform/internal/app/storage/memory"
)

func TestSquadTotalDoublesCaptain(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	playerSvc := players.New(store, nil, nil)
	svc := New(playerSvc, store, nil, nil)

	var ids []string
	for _, seed := range []struct {
		name  string
		score int
	}{{"Alpha", 100}, {"Beta", 80}, {"Gamma", 60}} {
		p, err := playerSvc.Create(ctx, player.Player{
			LastName: seed.name, Team: "GEE", Position: player.Midfield, Price: 500000,
		})
		if err != nil {
			t.Fatalf("create player: %v", err)
		}
		if _, err := playerSvc.RecordScore(ctx, player.RoundScore{PlayerID: p.ID, Round: 1, Score: seed.score}); err != nil {
			t.Fatalf("record score: %v", err)
		}
		ids = append(ids, p.ID)
	}

	squad, err := store.CreateSquad(ctx, fantasy.Squad{UserID: "u1", Name: "Cap", PlayerIDs: ids})
	if err != nil {
		t.Fatalf("create squad: %v", err)
	}
	if _, err := store.SaveLineup(ctx, fantasy.Lineup{
		SquadID: squad.ID, Round: 1, OnField: ids,
		CaptainID: ids[0], ViceCaptainID: ids[1],
	}); err != nil {
		t.Fatalf("save lineup: %v", err)
	}

	total, err := svc.SquadTotal(ctx, squad.ID, 1)
	if err != nil {
		t.Fatalf("squad total: %v", err)
	}

	// 100 doubled + 80 + 60.
	if total.Total != 340 {
		t.Fatalf("expected total 340, got %d", total.Total)
	}
	if total.CaptainID != ids[0] {
		t.Fatalf("expected captain %s doubled, got %s", ids[0], total.CaptainID)
	}
	if total.CaptainScore != 200 {
		t.Fatalf("expected captain score 200, got %d", total.CaptainScore)
	}
	if total.PlayersScored != 3 {
		t.Fatalf("expected 3 players scored, got %d", total.PlayersScored)
	}
}

func TestSquadTotalFallsBackToViceCaptain(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	playerSvc := players.New(store, nil, nil)
	svc := New(playerSvc, store, nil, nil)

	captain, err := playerSvc.Create(ctx, player.Player{
		LastName: "LateGame", Team: "GEE", Position: player.Midfield, Price: 500000,
	})
	if err != nil {
		t.Fatalf("create captain: %v", err)
	}
	vice, err := playerSvc.Create(ctx, player.Player{
		LastName: "EarlyGame", Team: "MEL", Position: player.Midfield, Price: 500000,
	})
	if err != nil {
		t.Fatalf("create vice: %v", err)
	}
	// Only the vice has a recorded score.
	if _, err := playerSvc.RecordScore(ctx, player.RoundScore{PlayerID: vice.ID, Round: 1, Score: 90}); err != nil {
		t.Fatalf("record score: %v", err)
	}

	squad, err := store.CreateSquad(ctx, fantasy.Squad{
		UserID: "u1", Name: "Loophole", PlayerIDs: []string{captain.ID, vice.ID},
	})
	if err != nil {
		t.Fatalf("create squad: %v", err)
	}
	if _, err := store.SaveLineup(ctx, fantasy.Lineup{
		SquadID: squad.ID, Round: 1, OnField: []string{captain.ID, vice.ID},
		CaptainID: captain.ID, ViceCaptainID: vice.ID,
	}); err != nil {
		t.Fatalf("save lineup: %v", err)
	}

	total, err := svc.SquadTotal(ctx, squad.ID, 1)
	if err != nil {
		t.Fatalf("squad total: %v", err)
	}
	if total.CaptainID != vice.ID {
		t.Fatalf("expected vice doubled, got %s", total.CaptainID)
	}
	if total.Total != 180 {
		t.Fatalf("expected total 180, got %d", total.Total)
	}
}

func TestRecordBroadcasts(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	playerSvc := players.New(store, nil, nil)
	hub := NewHub(nil)
	svc := New(playerSvc, store, hub, nil)

	p, err := playerSvc.Create(ctx, player.Player{
		LastName: "Live", Team: "GEE", Position: player.Forward, Price: 400000,
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	saved, err := svc.Record(ctx, player.RoundScore{PlayerID: p.ID, Round: 3, Score: 77})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if saved.Score != 77 {
		t.Fatalf("unexpected saved score %d", saved.Score)
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients, got %d", hub.ClientCount())
	}
}
