package players

import (
	"context"
	"testing"

	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/storage/memory"
)

func newTestService() *Service {
	return New(memory.New(), nil, nil)
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, player.Player{
		FirstName: "Marcus",
		LastName:  "Bontempelli",
		Team:      "wb",
		Position:  player.Midfield,
		Price:     1089000,
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}
	if created.Team != "WB" {
		t.Fatalf("expected team uppercased, got %q", created.Team)
	}
	if created.Status != player.StatusAvailable {
		t.Fatalf("expected default status available, got %s", created.Status)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got.FullName() != "Marcus Bontempelli" {
		t.Fatalf("unexpected name %q", got.FullName())
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []player.Player{
		{Team: "GEE", Position: player.Forward},                                  // missing last name
		{LastName: "Cameron", Position: player.Forward},                          // missing team
		{LastName: "Cameron", Team: "GEE", Position: "WING"},                     // bad position
		{LastName: "Cameron", Team: "GEE", Position: player.Forward, Price: -10}, // negative price
	}
	for i, p := range cases {
		if _, err := svc.Create(ctx, p); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestRecordScoreUpdatesAverage(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, player.Player{
		LastName: "Gawn", Team: "MEL", Position: player.Ruck, Price: 900000,
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	for round, score := range map[int]int{1: 100, 2: 120} {
		if _, err := svc.RecordScore(ctx, player.RoundScore{PlayerID: created.ID, Round: round, Score: score}); err != nil {
			t.Fatalf("record round %d: %v", round, err)
		}
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got.GamesPlayed != 2 {
		t.Fatalf("expected 2 games played, got %d", got.GamesPlayed)
	}
	if got.Average != 110 {
		t.Fatalf("expected average 110, got %v", got.Average)
	}
}

func TestRecordScoreReplacesRound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, player.Player{
		LastName: "Daicos", Team: "COL", Position: player.Midfield, Price: 1000000,
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	if _, err := svc.RecordScore(ctx, player.RoundScore{PlayerID: created.ID, Round: 1, Score: 80}); err != nil {
		t.Fatalf("record score: %v", err)
	}
	if _, err := svc.RecordScore(ctx, player.RoundScore{PlayerID: created.ID, Round: 1, Score: 95}); err != nil {
		t.Fatalf("re-record score: %v", err)
	}

	scores, err := svc.Scores(ctx, created.ID)
	if err != nil {
		t.Fatalf("list scores: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("expected 1 score after upsert, got %d", len(scores))
	}
	if scores[0].Score != 95 {
		t.Fatalf("expected replaced score 95, got %d", scores[0].Score)
	}
}

func TestListFilters(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	seed := []player.Player{
		{LastName: "Sicily", Team: "HAW", Position: player.Defender, Price: 800000},
		{LastName: "Oliver", Team: "MEL", Position: player.Midfield, Price: 850000},
		{LastName: "Grundy", Team: "SYD", Position: player.Ruck, Price: 780000},
	}
	for _, p := range seed {
		if _, err := svc.Create(ctx, p); err != nil {
			t.Fatalf("seed player: %v", err)
		}
	}

	mids, err := svc.List(ctx, player.Filter{Position: player.Midfield})
	if err != nil {
		t.Fatalf("list midfielders: %v", err)
	}
	if len(mids) != 1 || mids[0].LastName != "Oliver" {
		t.Fatalf("unexpected midfielder listing: %+v", mids)
	}

	cheap, err := svc.List(ctx, player.Filter{MaxPrice: 800000})
	if err != nil {
		t.Fatalf("list by price: %v", err)
	}
	if len(cheap) != 2 {
		t.Fatalf("expected 2 players under price cap, got %d", len(cheap))
	}
}

func TestSyncUpsertsByExternalRef(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, created, err := svc.Sync(ctx, player.Player{
		ExternalRef: "CD_I1000",
		LastName:    "Butters",
		Team:        "PA",
		Position:    player.Midfield,
		Price:       750000,
	})
	if err != nil {
		t.Fatalf("sync create: %v", err)
	}
	if !created {
		t.Fatal("expected first sync to create")
	}

	second, created, err := svc.Sync(ctx, player.Player{
		ExternalRef: "CD_I1000",
		LastName:    "Butters",
		Team:        "PA",
		Position:    player.Midfield,
		Price:       790000,
	})
	if err != nil {
		t.Fatalf("sync update: %v", err)
	}
	if created {
		t.Fatal("expected second sync to update")
	}
	if second.ID != first.ID {
		t.Fatalf("expected stable ID, got %s then %s", first.ID, second.ID)
	}
	if second.Price != 790000 {
		t.Fatalf("expected updated price, got %d", second.Price)
	}
}

func TestUpdateDetails(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, player.Player{
		LastName: "Neale", Team: "BL", Position: player.Midfield, Price: 950000,
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	price := 975000
	status := player.StatusInjured
	updated, err := svc.UpdateDetails(ctx, created.ID, &price, &status, nil)
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if updated.Price != price || updated.Status != status {
		t.Fatalf("patch not applied: %+v", updated)
	}

	bad := player.Status("retired")
	if _, err := svc.UpdateDetails(ctx, created.ID, nil, &bad, nil); err == nil {
		t.Fatal("expected error for unsupported status")
	}
}
