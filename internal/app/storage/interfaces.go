package storage

import (
	"context"

	"github.com/afl-fantasy/platform/internal/app/domain/fantasy"
	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/projection"
	"github.com/afl-fantasy/platform/internal/app/domain/user"
)

// PlayerStore persists players and their round scores.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, p player.Player) (player.Player, error)
	UpdatePlayer(ctx context.Context, p player.Player) (player.Player, error)
	GetPlayer(ctx context.Context, id string) (player.Player, error)
	GetPlayerByExternalRef(ctx context.Context, ref string) (player.Player, error)
	ListPlayers(ctx context.Context, filter player.Filter) ([]player.Player, error)

	UpsertRoundScore(ctx context.Context, score player.RoundScore) (player.RoundScore, error)
	ListRoundScores(ctx context.Context, playerID string) ([]player.RoundScore, error)
	ListScoresForRound(ctx context.Context, round int) ([]player.RoundScore, error)
}

// FixtureStore persists the AFL fixture.
type FixtureStore interface {
	CreateFixture(ctx context.Context, f fixture.Fixture) (fixture.Fixture, error)
	UpdateFixture(ctx context.Context, f fixture.Fixture) (fixture.Fixture, error)
	GetFixture(ctx context.Context, id string) (fixture.Fixture, error)
	ListFixtures(ctx context.Context, round int) ([]fixture.Fixture, error)
}

// ProjectionStore persists computed projections.
type ProjectionStore interface {
	CreateProjection(ctx context.Context, proj projection.Projection) (projection.Projection, error)
	GetProjection(ctx context.Context, playerID string, round int) (projection.Projection, error)
	ListProjections(ctx context.Context, round int) ([]projection.Projection, error)
}

// SquadStore persists fantasy squads, lineups and trades.
type SquadStore interface {
	CreateSquad(ctx context.Context, squad fantasy.Squad) (fantasy.Squad, error)
	UpdateSquad(ctx context.Context, squad fantasy.Squad) (fantasy.Squad, error)
	GetSquad(ctx context.Context, id string) (fantasy.Squad, error)
	ListSquads(ctx context.Context, userID string) ([]fantasy.Squad, error)

	SaveLineup(ctx context.Context, lineup fantasy.Lineup) (fantasy.Lineup, error)
	GetLineup(ctx context.Context, squadID string, round int) (fantasy.Lineup, error)

	CreateTrade(ctx context.Context, trade fantasy.Trade) (fantasy.Trade, error)
	ListTrades(ctx context.Context, squadID string, round int) ([]fantasy.Trade, error)
}

// UserStore persists platform users.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}
