package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/afl-fantasy/platform/internal/app/domain/fantasy"
	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/app/domain/projection"
	"github.com/afl-fantasy/platform/internal/app/domain/user"
	"github.com/afl-fantasy/platform/internal/app/storage"

	"github.com/lib/pq"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.PlayerStore = (*Store)(nil)
var _ storage.FixtureStore = (*Store)(nil)
var _ storage.ProjectionStore = (*Store)(nil)
var _ storage.SquadStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// --- PlayerStore ------------------------------------------------------------

func (s *Store) CreatePlayer(ctx context.Context, p player.Player) (player.Player, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, external_ref, first_name, last_name, team, position, price, average, breakeven, ownership, status, games_played, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, p.ExternalRef, p.FirstName, p.LastName, p.Team, p.Position, p.Price, p.Average, p.Breakeven, p.Ownership, p.Status, p.GamesPlayed, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return player.Player{}, err
	}
	return p, nil
}

func (s *Store) UpdatePlayer(ctx context.Context, p player.Player) (player.Player, error) {
	existing, err := s.GetPlayer(ctx, p.ID)
	if err != nil {
		return player.Player{}, err
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE players
		SET external_ref = $2, first_name = $3, last_name = $4, team = $5, position = $6, price = $7, average = $8, breakeven = $9, ownership = $10, status = $11, games_played = $12, updated_at = $13
		WHERE id = $1
	`, p.ID, p.ExternalRef, p.FirstName, p.LastName, p.Team, p.Position, p.Price, p.Average, p.Breakeven, p.Ownership, p.Status, p.GamesPlayed, p.UpdatedAt)
	if err != nil {
		return player.Player{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return player.Player{}, sql.ErrNoRows
	}
	return p, nil
}

const playerColumns = `id, external_ref, first_name, last_name, team, position, price, average, breakeven, ownership, status, games_played, created_at, updated_at`

func scanPlayer(row interface{ Scan(...interface{}) error }) (player.Player, error) {
	var p player.Player
	err := row.Scan(&p.ID, &p.ExternalRef, &p.FirstName, &p.LastName, &p.Team, &p.Position, &p.Price, &p.Average, &p.Breakeven, &p.Ownership, &p.Status, &p.GamesPlayed, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) GetPlayer(ctx context.Context, id string) (player.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE id = $1
	`, id)
	return scanPlayer(row)
}

func (s *Store) GetPlayerByExternalRef(ctx context.Context, ref string) (player.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE external_ref = $1
	`, ref)
	return scanPlayer(row)
}

func (s *Store) ListPlayers(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE ($1 = '' OR team = $1)
		  AND ($2 = '' OR position = $2)
		  AND ($3 = '' OR status = $3)
		  AND ($4 = 0 OR price <= $4)
		ORDER BY last_name, id
	`, filter.Team, string(filter.Position), string(filter.Status), filter.MaxPrice)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []player.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) UpsertRoundScore(ctx context.Context, score player.RoundScore) (player.RoundScore, error) {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	score.CreatedAt = now
	if score.RecordedAt.IsZero() {
		score.RecordedAt = now
	}

	// Late stat corrections replace the existing row for the player/round.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_round_scores (id, player_id, round, opponent, venue, score, time_on_ground, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (player_id, round) DO UPDATE
		SET opponent = EXCLUDED.opponent, venue = EXCLUDED.venue, score = EXCLUDED.score,
		    time_on_ground = EXCLUDED.time_on_ground, recorded_at = EXCLUDED.recorded_at
	`, score.ID, score.PlayerID, score.Round, score.Opponent, score.Venue, score.Score, score.TimeOnGround, score.RecordedAt, score.CreatedAt)
	if err != nil {
		return player.RoundScore{}, err
	}
	return score, nil
}

func (s *Store) ListRoundScores(ctx context.Context, playerID string) ([]player.RoundScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, round, opponent, venue, score, time_on_ground, recorded_at, created_at
		FROM player_round_scores
		WHERE player_id = $1
		ORDER BY round
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []player.RoundScore
	for rows.Next() {
		var sc player.RoundScore
		if err := rows.Scan(&sc.ID, &sc.PlayerID, &sc.Round, &sc.Opponent, &sc.Venue, &sc.Score, &sc.TimeOnGround, &sc.RecordedAt, &sc.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func (s *Store) ListScoresForRound(ctx context.Context, round int) ([]player.RoundScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, round, opponent, venue, score, time_on_ground, recorded_at, created_at
		FROM player_round_scores
		WHERE round = $1
		ORDER BY player_id
	`, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []player.RoundScore
	for rows.Next() {
		var sc player.RoundScore
		if err := rows.Scan(&sc.ID, &sc.PlayerID, &sc.Round, &sc.Opponent, &sc.Venue, &sc.Score, &sc.TimeOnGround, &sc.RecordedAt, &sc.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// --- FixtureStore -----------------------------------------------------------

func (s *Store) CreateFixture(ctx context.Context, f fixture.Fixture) (fixture.Fixture, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = fixture.StatusScheduled
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fixtures (id, round, home_team, away_team, venue, start_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, f.ID, f.Round, f.HomeTeam, f.AwayTeam, f.Venue, f.StartTime, f.Status, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fixture.Fixture{}, err
	}
	return f, nil
}

func (s *Store) UpdateFixture(ctx context.Context, f fixture.Fixture) (fixture.Fixture, error) {
	existing, err := s.GetFixture(ctx, f.ID)
	if err != nil {
		return fixture.Fixture{}, err
	}
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE fixtures
		SET round = $2, home_team = $3, away_team = $4, venue = $5, start_time = $6, status = $7, updated_at = $8
		WHERE id = $1
	`, f.ID, f.Round, f.HomeTeam, f.AwayTeam, f.Venue, f.StartTime, f.Status, f.UpdatedAt)
	if err != nil {
		return fixture.Fixture{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fixture.Fixture{}, sql.ErrNoRows
	}
	return f, nil
}

func (s *Store) GetFixture(ctx context.Context, id string) (fixture.Fixture, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, round, home_team, away_team, venue, start_time, status, created_at, updated_at
		FROM fixtures
		WHERE id = $1
	`, id)

	var f fixture.Fixture
	if err := row.Scan(&f.ID, &f.Round, &f.HomeTeam, &f.AwayTeam, &f.Venue, &f.StartTime, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return fixture.Fixture{}, err
	}
	return f, nil
}

func (s *Store) ListFixtures(ctx context.Context, round int) ([]fixture.Fixture, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, round, home_team, away_team, venue, start_time, status, created_at, updated_at
		FROM fixtures
		WHERE $1 = 0 OR round = $1
		ORDER BY round, start_time
	`, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fixture.Fixture
	for rows.Next() {
		var f fixture.Fixture
		if err := rows.Scan(&f.ID, &f.Round, &f.HomeTeam, &f.AwayTeam, &f.Venue, &f.StartTime, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// --- ProjectionStore --------------------------------------------------------

func (s *Store) CreateProjection(ctx context.Context, proj projection.Projection) (projection.Projection, error) {
	if proj.ID == "" {
		proj.ID = uuid.NewString()
	}
	proj.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projections (id, player_id, round, projected_score, floor, ceiling, confidence, breakeven, price_change, trend, algorithm_version, computed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (player_id, round) DO UPDATE
		SET projected_score = EXCLUDED.projected_score, floor = EXCLUDED.floor, ceiling = EXCLUDED.ceiling,
		    confidence = EXCLUDED.confidence, breakeven = EXCLUDED.breakeven, price_change = EXCLUDED.price_change,
		    trend = EXCLUDED.trend, algorithm_version = EXCLUDED.algorithm_version, computed_at = EXCLUDED.computed_at
	`, proj.ID, proj.PlayerID, proj.Round, proj.ProjectedScore, proj.Floor, proj.Ceiling, proj.Confidence, proj.Breakeven, proj.PriceChange, proj.Trend, proj.AlgorithmVersion, proj.ComputedAt, proj.CreatedAt)
	if err != nil {
		return projection.Projection{}, err
	}
	return proj, nil
}

func (s *Store) GetProjection(ctx context.Context, playerID string, round int) (projection.Projection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, player_id, round, projected_score, floor, ceiling, confidence, breakeven, price_change, trend, algorithm_version, computed_at, created_at
		FROM projections
		WHERE player_id = $1 AND round = $2
	`, playerID, round)

	var proj projection.Projection
	if err := row.Scan(&proj.ID, &proj.PlayerID, &proj.Round, &proj.ProjectedScore, &proj.Floor, &proj.Ceiling, &proj.Confidence, &proj.Breakeven, &proj.PriceChange, &proj.Trend, &proj.AlgorithmVersion, &proj.ComputedAt, &proj.CreatedAt); err != nil {
		return projection.Projection{}, err
	}
	return proj, nil
}

func (s *Store) ListProjections(ctx context.Context, round int) ([]projection.Projection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, round, projected_score, floor, ceiling, confidence, breakeven, price_change, trend, algorithm_version, computed_at, created_at
		FROM projections
		WHERE round = $1
		ORDER BY projected_score DESC
	`, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []projection.Projection
	for rows.Next() {
		var proj projection.Projection
		if err := rows.Scan(&proj.ID, &proj.PlayerID, &proj.Round, &proj.ProjectedScore, &proj.Floor, &proj.Ceiling, &proj.Confidence, &proj.Breakeven, &proj.PriceChange, &proj.Trend, &proj.AlgorithmVersion, &proj.ComputedAt, &proj.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, proj)
	}
	return result, rows.Err()
}

// --- SquadStore ---------------------------------------------------------

func (s *Store) CreateSquad(ctx context.Context, squad fantasy.Squad) (fantasy.Squad, error) {
	if squad.ID == "" {
		squad.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	squad.CreatedAt = now
	squad.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO squads (id, user_id, name, player_ids, bank, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, squad.ID, squad.UserID, squad.Name, pq.Array(squad.PlayerIDs), squad.Bank, squad.CreatedAt, squad.UpdatedAt)
	if err != nil {
		return fantasy.Squad{}, err
	}
	return squad, nil
}

func (s *Store) UpdateSquad(ctx context.Context, squad fantasy.Squad) (fantasy.Squad, error) {
	existing, err := s.GetSquad(ctx, squad.ID)
	if err != nil {
		return fantasy.Squad{}, err
	}
	squad.UserID = existing.UserID
	squad.CreatedAt = existing.CreatedAt
	squad.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE squads
		SET name = $2, player_ids = $3, bank = $4, updated_at = $5
		WHERE id = $1
	`, squad.ID, squad.Name, pq.Array(squad.PlayerIDs), squad.Bank, squad.UpdatedAt)
	if err != nil {
		return fantasy.Squad{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fantasy.Squad{}, sql.ErrNoRows
	}
	return squad, nil
}

func (s *Store) GetSquad(ctx context.Context, id string) (fantasy.Squad, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, player_ids, bank, created_at, updated_at
		FROM squads
		WHERE id = $1
	`, id)

	var squad fantasy.Squad
	if err := row.Scan(&squad.ID, &squad.UserID, &squad.Name, pq.Array(&squad.PlayerIDs), &squad.Bank, &squad.CreatedAt, &squad.UpdatedAt); err != nil {
		return fantasy.Squad{}, err
	}
	return squad, nil
}

func (s *Store) ListSquads(ctx context.Context, userID string) ([]fantasy.Squad, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, player_ids, bank, created_at, updated_at
		FROM squads
		WHERE $1 = '' OR user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fantasy.Squad
	for rows.Next() {
		var squad fantasy.Squad
		if err := rows.Scan(&squad.ID, &squad.UserID, &squad.Name, pq.Array(&squad.PlayerIDs), &squad.Bank, &squad.CreatedAt, &squad.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, squad)
	}
	return result, rows.Err()
}

func (s *Store) SaveLineup(ctx context.Context, lineup fantasy.Lineup) (fantasy.Lineup, error) {
	if lineup.ID == "" {
		lineup.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lineup.CreatedAt = now
	lineup.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lineups (id, squad_id, round, on_field, captain_id, vice_captain_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (squad_id, round) DO UPDATE
		SET on_field = EXCLUDED.on_field, captain_id = EXCLUDED.captain_id,
		    vice_captain_id = EXCLUDED.vice_captain_id, updated_at = EXCLUDED.updated_at
	`, lineup.ID, lineup.SquadID, lineup.Round, pq.Array(lineup.OnField), lineup.CaptainID, lineup.ViceCaptainID, lineup.CreatedAt, lineup.UpdatedAt)
	if err != nil {
		return fantasy.Lineup{}, err
	}
	return lineup, nil
}

func (s *Store) GetLineup(ctx context.Context, squadID string, round int) (fantasy.Lineup, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, squad_id, round, on_field, captain_id, vice_captain_id, created_at, updated_at
		FROM lineups
		WHERE squad_id = $1 AND round = $2
	`, squadID, round)

	var lineup fantasy.Lineup
	if err := row.Scan(&lineup.ID, &lineup.SquadID, &lineup.Round, pq.Array(&lineup.OnField), &lineup.CaptainID, &lineup.ViceCaptainID, &lineup.CreatedAt, &lineup.UpdatedAt); err != nil {
		return fantasy.Lineup{}, err
	}
	return lineup, nil
}

func (s *Store) CreateTrade(ctx context.Context, trade fantasy.Trade) (fantasy.Trade, error) {
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	if trade.ExecutedAt.IsZero() {
		trade.ExecutedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, squad_id, round, player_out_id, player_in_id, cash_delta, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, trade.ID, trade.SquadID, trade.Round, trade.PlayerOutID, trade.PlayerInID, trade.CashDelta, trade.ExecutedAt)
	if err != nil {
		return fantasy.Trade{}, err
	}
	return trade, nil
}

func (s *Store) ListTrades(ctx context.Context, squadID string, round int) ([]fantasy.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, squad_id, round, player_out_id, player_in_id, cash_delta, executed_at
		FROM trades
		WHERE squad_id = $1 AND ($2 = 0 OR round = $2)
		ORDER BY executed_at
	`, squadID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fantasy.Trade
	for rows.Next() {
		var trade fantasy.Trade
		if err := rows.Scan(&trade.ID, &trade.SquadID, &trade.Round, &trade.PlayerOutID, &trade.PlayerInID, &trade.CashDelta, &trade.ExecutedAt); err != nil {
			return nil, err
		}
		result = append(result, trade)
	}
	return result, rows.Err()
}

// --- UserStore ------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, role, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)
	`, u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = lower($1)
	`, email)

	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, err
	}
	return u, nil
}
