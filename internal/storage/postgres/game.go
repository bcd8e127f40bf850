package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/hockeysim/internal/game/sim"
)

// ErrGameNotFound is returned when a game lookup yields no results.
var ErrGameNotFound = errors.New("game not found")

// Game status values stored in games.status.
const (
	StatusScheduled = "scheduled"
	StatusFinal     = "final"
	StatusFailed    = "failed"
)

// ScheduledGame is a game awaiting (or past) simulation.
type ScheduledGame struct {
	ID          int64
	HomeTeamID  string
	AwayTeamID  string
	ScheduledAt time.Time
	Status      string
}

// Game is a stored game row including its final summary once simulated.
type Game struct {
	ScheduledGame
	HomeScore      int
	AwayScore      int
	HomeShots      int
	AwayShots      int
	OvertimeWinner sim.Side
	ShootoutWinner sim.Side
	HomeStrength   float64
	AwayStrength   float64
	SimulationID   uuid.UUID
	SimulatedAt    *time.Time
	Attempts       int
	NextAttemptAt  *time.Time
	LastError      string
}

// GameRepository persists the schedule and simulation results.
type GameRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewGameRepository creates a GameRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db, now: time.Now}
}

// ScheduleGame adds a game between two stored teams.
//
// Precondition: homeID != awayID.
// Postcondition: Returns the scheduled game with ID set, or ErrTeamNotFound
// when either team does not exist.
func (r *GameRepository) ScheduleGame(ctx context.Context, homeID, awayID string, at time.Time) (ScheduledGame, error) {
	g := ScheduledGame{HomeTeamID: homeID, AwayTeamID: awayID, ScheduledAt: at, Status: StatusScheduled}
	err := r.db.QueryRow(ctx, `
		INSERT INTO games (home_team_id, away_team_id, scheduled_at)
		VALUES ($1, $2, $3)
		RETURNING id, scheduled_at`,
		homeID, awayID, at,
	).Scan(&g.ID, &g.ScheduledAt)
	if err != nil {
		if isForeignKeyError(err) {
			return ScheduledGame{}, ErrTeamNotFound
		}
		return ScheduledGame{}, fmt.Errorf("scheduling game: %w", err)
	}
	return g, nil
}

// ListDue returns up to limit unsimulated games scheduled at or before now,
// oldest first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *GameRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]ScheduledGame, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, home_team_id, away_team_id, scheduled_at, status
		FROM games
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at, id
		LIMIT $3`,
		StatusScheduled, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing due games: %w", err)
	}
	games, err := pgx.CollectRows(rows, pgx.RowToStructByPos[ScheduledGame])
	if err != nil {
		return nil, fmt.Errorf("scanning due games: %w", err)
	}
	return games, nil
}

// ClaimDue leases up to limit due games for simulation, oldest first, and
// returns them. A game is due when it is scheduled at or before now and its
// previous lease, if any, has expired. Claiming increments the game's attempt
// count and pushes its next attempt out by retryAfter times that count, so a
// game that keeps failing backs off and later games are not starved.
//
// Rows are selected FOR UPDATE SKIP LOCKED, so concurrent claimers never
// lease the same game.
//
// Precondition: limit must be > 0; retryAfter must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *GameRepository) ClaimDue(ctx context.Context, now time.Time, limit int, retryAfter time.Duration) ([]ScheduledGame, error) {
	var games []ScheduledGame
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			WITH due AS (
				SELECT id FROM games
				WHERE status = $1 AND scheduled_at <= $2
				  AND (next_attempt_at IS NULL OR next_attempt_at <= $2)
				ORDER BY scheduled_at, id
				LIMIT $3
				FOR UPDATE SKIP LOCKED
			)
			UPDATE games g SET
				attempts = g.attempts + 1,
				next_attempt_at = $2::timestamptz + make_interval(secs => $4::double precision * (g.attempts + 1))
			FROM due
			WHERE g.id = due.id
			RETURNING g.id, g.home_team_id, g.away_team_id, g.scheduled_at, g.status`,
			StatusScheduled, now, limit, retryAfter.Seconds(),
		)
		if err != nil {
			return fmt.Errorf("claiming due games: %w", err)
		}
		games, err = pgx.CollectRows(rows, pgx.RowToStructByPos[ScheduledGame])
		if err != nil {
			return fmt.Errorf("scanning claimed games: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(games, func(i, j int) bool {
		if !games[i].ScheduledAt.Equal(games[j].ScheduledAt) {
			return games[i].ScheduledAt.Before(games[j].ScheduledAt)
		}
		return games[i].ID < games[j].ID
	})
	return games, nil
}

// RecordFailure stores reason against a claimed game that could not be
// simulated or saved. Once the game has been attempted maxAttempts times it
// moves to StatusFailed and is no longer claimed.
//
// Precondition: maxAttempts must be >= 1.
// Postcondition: Returns nil, ErrGameNotFound, or a non-nil error.
func (r *GameRepository) RecordFailure(ctx context.Context, gameID int64, reason string, maxAttempts int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE games SET
			last_error = $2,
			status = CASE WHEN attempts >= $3 THEN $4 ELSE status END
		WHERE id = $1 AND status = $5`,
		gameID, reason, maxAttempts, StatusFailed, StatusScheduled,
	)
	if err != nil {
		return fmt.Errorf("recording failure for game %d: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

// SaveResult records res as the final outcome of game gameID in one
// transaction. Re-saving the same game replaces its periods, events, stars,
// and player stats.
//
// Postcondition: The game is final with res persisted, or ErrGameNotFound.
func (r *GameRepository) SaveResult(ctx context.Context, gameID int64, simulationID uuid.UUID, res sim.GameResult) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE games SET
				status = $2,
				home_score = $3, away_score = $4,
				home_shots = $5, away_shots = $6,
				overtime_winner = $7, shootout_winner = $8,
				home_strength = $9, away_strength = $10,
				simulation_id = $11, simulated_at = $12,
				next_attempt_at = NULL, last_error = NULL
			WHERE id = $1`,
			gameID, StatusFinal,
			res.HomeScore, res.AwayScore, res.HomeShots, res.AwayShots,
			sideValue(res.OvertimeWinner), sideValue(res.ShootoutWinner),
			res.HomeTeamStrength, res.AwayTeamStrength,
			simulationID, r.now(),
		)
		if err != nil {
			return fmt.Errorf("updating game: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrGameNotFound
		}

		for _, table := range []string{"game_periods", "game_events", "game_stars", "game_player_stats"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE game_id = $1", gameID); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		batch := &pgx.Batch{}
		for _, p := range res.Periods {
			batch.Queue(`
				INSERT INTO game_periods (game_id, period, home_goals, away_goals, home_shots, away_shots)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				gameID, p.Period, p.HomeGoals, p.AwayGoals, p.HomeShots, p.AwayShots,
			)
		}
		for i, s := range res.Stars {
			batch.Queue(`
				INSERT INTO game_stars (game_id, rank, player_id, team_id, points, reason)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				gameID, i+1, s.PlayerID, s.TeamID, s.Points, s.Reason,
			)
		}
		for _, l := range res.PlayerStats {
			batch.Queue(`
				INSERT INTO game_player_stats (game_id, player_id, team_id, goals, assists, shots, hits, penalties)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				gameID, l.PlayerID, l.TeamID, l.Goals, l.Assists, l.Shots, l.Hits, l.Penalties,
			)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("inserting game summary: %w", err)
			}
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"game_events"},
			[]string{"game_id", "seq", "period", "time_label", "event_type", "description", "player_id", "team_id", "assist_ids"},
			pgx.CopyFromSlice(len(res.PlayByPlay), func(i int) ([]any, error) {
				e := res.PlayByPlay[i]
				assists := e.AssistIDs
				if assists == nil {
					assists = []string{}
				}
				return []any{gameID, i, e.Period, e.Time, string(e.Type), e.Description,
					nullable(e.PlayerID), nullable(e.TeamID), assists}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copying events: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving result for game %d: %w", gameID, err)
	}
	return nil
}

// GetGame returns the stored game row.
//
// Postcondition: Returns the game, or ErrGameNotFound.
func (r *GameRepository) GetGame(ctx context.Context, id int64) (Game, error) {
	var (
		g          Game
		otWinner   pgtype.Text
		soWinner   pgtype.Text
		simID      pgtype.UUID
		homeStr    pgtype.Float8
		awayStr    pgtype.Float8
		scoreShots [4]pgtype.Int4
		lastError  pgtype.Text
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, home_team_id, away_team_id, scheduled_at, status,
		       home_score, away_score, home_shots, away_shots,
		       overtime_winner, shootout_winner, home_strength, away_strength,
		       simulation_id, simulated_at, attempts, next_attempt_at, last_error
		FROM games WHERE id = $1`,
		id,
	).Scan(
		&g.ID, &g.HomeTeamID, &g.AwayTeamID, &g.ScheduledAt, &g.Status,
		&scoreShots[0], &scoreShots[1], &scoreShots[2], &scoreShots[3],
		&otWinner, &soWinner, &homeStr, &awayStr,
		&simID, &g.SimulatedAt, &g.Attempts, &g.NextAttemptAt, &lastError,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Game{}, ErrGameNotFound
	}
	if err != nil {
		return Game{}, fmt.Errorf("loading game %d: %w", id, err)
	}

	g.HomeScore = int(scoreShots[0].Int32)
	g.AwayScore = int(scoreShots[1].Int32)
	g.HomeShots = int(scoreShots[2].Int32)
	g.AwayShots = int(scoreShots[3].Int32)
	g.OvertimeWinner = sideOf(otWinner)
	g.ShootoutWinner = sideOf(soWinner)
	g.HomeStrength = homeStr.Float64
	g.AwayStrength = awayStr.Float64
	g.LastError = lastError.String
	if simID.Valid {
		g.SimulationID = uuid.UUID(simID.Bytes)
	}
	return g, nil
}

// ListPeriods returns the stored regulation periods of a game in order.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *GameRepository) ListPeriods(ctx context.Context, gameID int64) ([]sim.PeriodResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT period, home_goals, away_goals, home_shots, away_shots
		FROM game_periods WHERE game_id = $1 ORDER BY period`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing periods: %w", err)
	}
	periods, err := pgx.CollectRows(rows, pgx.RowToStructByPos[sim.PeriodResult])
	if err != nil {
		return nil, fmt.Errorf("scanning periods: %w", err)
	}
	return periods, nil
}

// ListEvents returns the stored play-by-play of a game in emission order.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *GameRepository) ListEvents(ctx context.Context, gameID int64) ([]sim.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT period, time_label, event_type, description,
		       COALESCE(player_id, ''), COALESCE(team_id, ''), assist_ids
		FROM game_events WHERE game_id = $1 ORDER BY seq`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (sim.Event, error) {
		var e sim.Event
		var typ string
		if err := row.Scan(&e.Period, &e.Time, &typ, &e.Description, &e.PlayerID, &e.TeamID, &e.AssistIDs); err != nil {
			return sim.Event{}, err
		}
		e.Type = sim.EventType(typ)
		if len(e.AssistIDs) == 0 {
			e.AssistIDs = nil
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning events: %w", err)
	}
	return events, nil
}

// ListStars returns the stored stars of a game, first star first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *GameRepository) ListStars(ctx context.Context, gameID int64) ([]sim.Star, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.player_id, COALESCE(NULLIF(TRIM(p.first_name || ' ' || p.last_name), ''), s.player_id),
		       s.team_id, s.points, s.reason
		FROM game_stars s
		LEFT JOIN players p ON p.id = s.player_id
		WHERE s.game_id = $1 ORDER BY s.rank`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stars: %w", err)
	}
	stars, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (sim.Star, error) {
		var s sim.Star
		err := row.Scan(&s.PlayerID, &s.Name, &s.TeamID, &s.Points, &s.Reason)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning stars: %w", err)
	}
	return stars, nil
}

func sideValue(s sim.Side) *string {
	if s == sim.SideNone || s == "" {
		return nil
	}
	v := string(s)
	return &v
}

func sideOf(t pgtype.Text) sim.Side {
	if !t.Valid {
		return sim.SideNone
	}
	return sim.Side(t.String)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
