package memory

import (
	"context"
	"testing"

	"github.com/afl-fantasy/platform/internal/app/domain/fantasy"
	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/user"
)

func TestPlayerCRUDAndExternalRef(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreatePlayer(ctx, player.Player{
		ExternalRef: "CD_1001", LastName: "Bontempelli", Team: "WB",
		Position: player.Midfield, Price: 1089000, Status: player.StatusAvailable,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected ID and timestamps, got %+v", created)
	}

	if _, err := store.CreatePlayer(ctx, player.Player{
		ExternalRef: "CD_1001", LastName: "Duplicate", Team: "WB",
		Position: player.Midfield,
	}); err == nil {
		t.Fatal("expected duplicate external ref rejected")
	}

	byRef, err := store.GetPlayerByExternalRef(ctx, "CD_1001")
	if err != nil {
		t.Fatalf("get by ref: %v", err)
	}
	if byRef.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, byRef.ID)
	}

	created.Price = 1102000
	updated, err := store.UpdatePlayer(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 1102000 {
		t.Fatalf("expected updated price, got %d", updated.Price)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("update must preserve created_at")
	}

	if _, err := store.GetPlayer(ctx, "missing"); err == nil {
		t.Fatal("expected not found")
	}
}

func TestUpsertRoundScoreReplaces(t *testing.T) {
	store := New()
	ctx := context.Background()

	p, err := store.CreatePlayer(ctx, player.Player{
		LastName: "Gawn", Team: "MEL", Position: player.Ruck,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.UpsertRoundScore(ctx, player.RoundScore{
		PlayerID: p.ID, Round: 3, Score: 88,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.UpsertRoundScore(ctx, player.RoundScore{
		PlayerID: p.ID, Round: 3, Score: 95,
	}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	scores, err := store.ListRoundScores(ctx, p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 95 {
		t.Fatalf("expected single replaced score, got %+v", scores)
	}

	forRound, err := store.ListScoresForRound(ctx, 3)
	if err != nil {
		t.Fatalf("list for round: %v", err)
	}
	if len(forRound) != 1 {
		t.Fatalf("expected 1 score in round 3, got %d", len(forRound))
	}
}

func TestListFixturesRoundFilter(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, fx := range []fixture.Fixture{
		{Round: 1, HomeTeam: "GEE", AwayTeam: "SYD", Status: fixture.StatusComplete},
		{Round: 2, HomeTeam: "COL", AwayTeam: "CAR", Status: fixture.StatusScheduled},
		{Round: 2, HomeTeam: "WB", AwayTeam: "MEL", Status: fixture.StatusScheduled},
	} {
		if _, err := store.CreateFixture(ctx, fx); err != nil {
			t.Fatalf("create fixture: %v", err)
		}
	}

	all, err := store.ListFixtures(ctx, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 fixtures, got %d", len(all))
	}

	round2, err := store.ListFixtures(ctx, 2)
	if err != nil {
		t.Fatalf("list round 2: %v", err)
	}
	if len(round2) != 2 {
		t.Fatalf("expected 2 fixtures in round 2, got %d", len(round2))
	}
}

func TestLineupAndTradesPerRound(t *testing.T) {
	store := New()
	ctx := context.Background()

	squad, err := store.CreateSquad(ctx, fantasy.Squad{UserID: "u1", Name: "Test"})
	if err != nil {
		t.Fatalf("create squad: %v", err)
	}

	if _, err := store.SaveLineup(ctx, fantasy.Lineup{
		SquadID: squad.ID, Round: 4, OnField: []string{"1", "2"},
		CaptainID: "1", ViceCaptainID: "2",
	}); err != nil {
		t.Fatalf("save lineup: %v", err)
	}
	if _, err := store.SaveLineup(ctx, fantasy.Lineup{
		SquadID: squad.ID, Round: 4, OnField: []string{"2", "3"},
		CaptainID: "2", ViceCaptainID: "3",
	}); err != nil {
		t.Fatalf("resave lineup: %v", err)
	}

	lineup, err := store.GetLineup(ctx, squad.ID, 4)
	if err != nil {
		t.Fatalf("get lineup: %v", err)
	}
	if lineup.CaptainID != "2" {
		t.Fatalf("expected resave to replace, got captain %s", lineup.CaptainID)
	}
	if _, err := store.GetLineup(ctx, squad.ID, 5); err == nil {
		t.Fatal("expected no lineup for round 5")
	}

	for round, n := range map[int]int{6: 2, 7: 1} {
		for i := 0; i < n; i++ {
			if _, err := store.CreateTrade(ctx, fantasy.Trade{
				SquadID: squad.ID, Round: round,
				PlayerOutID: "1", PlayerInID: "2",
			}); err != nil {
				t.Fatalf("create trade: %v", err)
			}
		}
	}

	round6, err := store.ListTrades(ctx, squad.ID, 6)
	if err != nil {
		t.Fatalf("list trades: %v", err)
	}
	if len(round6) != 2 {
		t.Fatalf("expected 2 trades in round 6, got %d", len(round6))
	}
	all, err := store.ListTrades(ctx, squad.ID, 0)
	if err != nil {
		t.Fatalf("list all trades: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 trades total, got %d", len(all))
	}
}

func TestUserEmailUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateUser(ctx, user.User{
		Email: "coach@example.com", DisplayName: "Coach", Role: user.RoleUser,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := store.CreateUser(ctx, user.User{
		Email: "coach@example.com", DisplayName: "Other",
	}); err == nil {
		t.Fatal("expected duplicate email rejected")
	}

	found, err := store.GetUserByEmail(ctx, "coach@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, found.ID)
	}
}
