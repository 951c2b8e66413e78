// Package migrations applies the platform schema in order at startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// statements are applied in order. Each statement is idempotent so repeated
// startups are safe without a version table.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id UUID PRIMARY KEY,
		external_ref TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL,
		team TEXT NOT NULL,
		position TEXT NOT NULL,
		price BIGINT NOT NULL DEFAULT 0,
		average DOUBLE PRECISION NOT NULL DEFAULT 0,
		breakeven INTEGER NOT NULL DEFAULT 0,
		ownership DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'available',
		games_played INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS players_external_ref_idx
		ON players (external_ref) WHERE external_ref <> ''`,
	`CREATE TABLE IF NOT EXISTS player_round_scores (
		id UUID PRIMARY KEY,
		player_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		round INTEGER NOT NULL,
		opponent TEXT NOT NULL DEFAULT '',
		venue TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL,
		time_on_ground DOUBLE PRECISION NOT NULL DEFAULT 0,
		recorded_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (player_id, round)
	)`,
	`CREATE TABLE IF NOT EXISTS fixtures (
		id UUID PRIMARY KEY,
		round INTEGER NOT NULL,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		venue TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projections (
		id UUID PRIMARY KEY,
		player_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		round INTEGER NOT NULL,
		projected_score DOUBLE PRECISION NOT NULL,
		floor DOUBLE PRECISION NOT NULL,
		ceiling DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		breakeven INTEGER NOT NULL DEFAULT 0,
		price_change INTEGER NOT NULL DEFAULT 0,
		trend TEXT NOT NULL DEFAULT 'stable',
		algorithm_version TEXT NOT NULL,
		computed_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (player_id, round)
	)`,
	`CREATE TABLE IF NOT EXISTS squads (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		player_ids TEXT[] NOT NULL DEFAULT '{}',
		bank BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lineups (
		id UUID PRIMARY KEY,
		squad_id UUID NOT NULL REFERENCES squads(id) ON DELETE CASCADE,
		round INTEGER NOT NULL,
		on_field TEXT[] NOT NULL DEFAULT '{}',
		captain_id TEXT NOT NULL DEFAULT '',
		vice_captain_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (squad_id, round)
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id UUID PRIMARY KEY,
		squad_id UUID NOT NULL REFERENCES squads(id) ON DELETE CASCADE,
		round INTEGER NOT NULL,
		player_out_id UUID NOT NULL,
		player_in_id UUID NOT NULL,
		cash_delta BIGINT NOT NULL DEFAULT 0,
		executed_at TIMESTAMPTZ NOT NULL
	)`,
}

// Apply runs every schema statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Count returns the number of schema statements. Used by tests.
func Count() int { return len(statements) }
