package captain

import (
	"context"
	"testing"
	"time"

	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/projection"
	"github.com/afl-fantasy/platform/internal/app/storage/memory"
)

func seed(t *testing.T, store *memory.Store, name, team string, projected, ceiling float64, status player.Status) player.Player {
	t.Helper()
	ctx := context.Background()

	p, err := store.CreatePlayer(ctx, player.Player{
		LastName: name, Team: team, Position: player.Midfield,
		Price: 800000, Status: status,
	})
	if err != nil {
		t.Fatalf("create player %s: %v", name, err)
	}
	if _, err := store.CreateProjection(ctx, projection.Projection{
		PlayerID: p.ID, Round: 10, ProjectedScore: projected,
		Ceiling: ceiling, Confidence: 0.7,
	}); err != nil {
		t.Fatalf("create projection: %v", err)
	}
	return p
}

func TestSuggestRanksByCaptainScore(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	// Spike has a lower projection but a much higher ceiling.
	steady := seed(t, store, "Steady", "GEE", 110, 120, player.StatusAvailable)
	spike := seed(t, store, "Spike", "MEL", 105, 150, player.StatusAvailable)

	suggestions, err := svc.Suggest(ctx, 10, nil, 0)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}

	// Steady: 0.65*110 + 0.35*120 = 113.5; Spike: 0.65*105 + 0.35*150 = 120.75.
	if suggestions[0].Player.ID != spike.ID {
		t.Fatalf("expected spike ranked first, got %s", suggestions[0].Player.LastName)
	}
	if suggestions[1].Player.ID != steady.ID {
		t.Fatalf("expected steady ranked second, got %s", suggestions[1].Player.LastName)
	}
}

func TestSuggestSkipsUnavailable(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	seed(t, store, "Injured", "GEE", 120, 140, player.StatusInjured)
	fit := seed(t, store, "Fit", "MEL", 100, 110, player.StatusAvailable)

	suggestions, err := svc.Suggest(ctx, 10, nil, 0)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Player.ID != fit.ID {
		t.Fatalf("expected only the fit player, got %+v", suggestions)
	}
}

func TestSuggestRestrictsToSquad(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	mine := seed(t, store, "Mine", "GEE", 100, 110, player.StatusAvailable)
	seed(t, store, "Other", "MEL", 130, 150, player.StatusAvailable)

	suggestions, err := svc.Suggest(ctx, 10, []string{mine.ID}, 0)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Player.ID != mine.ID {
		t.Fatalf("expected restriction to squad, got %+v", suggestions)
	}
}

func TestSuggestLoopholeViability(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	early := seed(t, store, "Early", "GEE", 100, 110, player.StatusAvailable)
	late := seed(t, store, "Late", "SYD", 100, 110, player.StatusAvailable)

	friday := time.Date(2026, 5, 1, 19, 40, 0, 0, time.UTC)
	sunday := friday.Add(48 * time.Hour)
	fixtures := []fixture.Fixture{
		{Round: 10, HomeTeam: "GEE", AwayTeam: "MEL", StartTime: friday, Status: fixture.StatusScheduled},
		{Round: 10, HomeTeam: "SYD", AwayTeam: "COL", StartTime: sunday, Status: fixture.StatusScheduled},
	}
	for _, f := range fixtures {
		if _, err := store.CreateFixture(ctx, f); err != nil {
			t.Fatalf("create fixture: %v", err)
		}
	}

	suggestions, err := svc.Suggest(ctx, 10, nil, 0)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}

	byID := make(map[string]Suggestion)
	for _, s := range suggestions {
		byID[s.Player.ID] = s
	}
	if !byID[early.ID].LoopholeViable {
		t.Fatal("expected opening-game player to be loophole viable")
	}
	if byID[late.ID].LoopholeViable {
		t.Fatal("expected later-game player not to be loophole viable")
	}
}

func TestSuggestLimit(t *testing.T) {
	store := memory.New()
	svc := New(store, store, store, nil)
	ctx := context.Background()

	seed(t, store, "A", "GEE", 100, 110, player.StatusAvailable)
	seed(t, store, "B", "MEL", 90, 100, player.StatusAvailable)
	seed(t, store, "C", "SYD", 80, 90, player.StatusAvailable)

	suggestions, err := svc.Suggest(ctx, 10, nil, 2)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(suggestions))
	}
}
