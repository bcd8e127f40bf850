package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/hockeysim/internal/game/roster"
)

// ErrTeamNotFound is returned when a team lookup yields no results.
var ErrTeamNotFound = errors.New("team not found")

// ErrTeamNameTaken is returned when saving a team whose name belongs to a different team ID.
var ErrTeamNameTaken = errors.New("team name already taken")

// ErrPlayerTaken is returned when a player ID is already rostered on another team.
var ErrPlayerTaken = errors.New("player already rostered on another team")

// TeamSummary identifies a stored team without its roster.
type TeamSummary struct {
	ID   string
	Name string
}

// TeamRepository persists rosters, coaches, and strategies.
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository creates a TeamRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

// SaveTeam inserts or replaces t, its players, coach, and strategy in one
// transaction. Players no longer on t are removed; a nil Coach or Strategy
// removes the stored one.
//
// Precondition: t.ID and t.Name must be non-empty; every player ID must be non-empty.
// Postcondition: LoadTeam(t.ID) returns an equivalent team, or ErrTeamNameTaken /
// ErrPlayerTaken is returned and nothing is written.
func (r *TeamRepository) SaveTeam(ctx context.Context, t *roster.Team) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO teams (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			t.ID, t.Name,
		); err != nil {
			if isDuplicateKeyError(err) {
				return ErrTeamNameTaken
			}
			return fmt.Errorf("upserting team: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM players WHERE team_id = $1`, t.ID); err != nil {
			return fmt.Errorf("clearing players: %w", err)
		}
		batch := &pgx.Batch{}
		for i, p := range t.Players {
			ratings := p.Ratings
			if ratings == nil {
				ratings = map[roster.Attribute]int{}
			}
			batch.Queue(`
				INSERT INTO players (id, team_id, roster_order, first_name, last_name, position, ratings)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.ID, t.ID, i, p.FirstName, p.LastName, string(p.Position), ratings,
			)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				if isDuplicateKeyError(err) {
					return ErrPlayerTaken
				}
				return fmt.Errorf("inserting players: %w", err)
			}
		}

		if err := saveCoach(ctx, tx, t.ID, t.Coach); err != nil {
			return err
		}
		return saveStrategy(ctx, tx, t.ID, t.Strategy)
	})
	if err != nil {
		return fmt.Errorf("saving team %s: %w", t.ID, err)
	}
	return nil
}

func saveCoach(ctx context.Context, tx pgx.Tx, teamID string, c *roster.Coach) error {
	if c == nil {
		if _, err := tx.Exec(ctx, `DELETE FROM coaches WHERE team_id = $1`, teamID); err != nil {
			return fmt.Errorf("removing coach: %w", err)
		}
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO coaches
			(team_id, id, name, offense_specialty, defense_specialty, powerplay_specialty,
			 penalty_kill_specialty, line_management, motivation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (team_id) DO UPDATE SET
			id = EXCLUDED.id,
			name = EXCLUDED.name,
			offense_specialty = EXCLUDED.offense_specialty,
			defense_specialty = EXCLUDED.defense_specialty,
			powerplay_specialty = EXCLUDED.powerplay_specialty,
			penalty_kill_specialty = EXCLUDED.penalty_kill_specialty,
			line_management = EXCLUDED.line_management,
			motivation = EXCLUDED.motivation`,
		teamID, c.ID, c.Name, c.OffenseSpecialty, c.DefenseSpecialty, c.PowerplaySpecialty,
		c.PenaltyKillSpecialty, c.LineManagement, c.Motivation,
	)
	if err != nil {
		return fmt.Errorf("upserting coach: %w", err)
	}
	return nil
}

func saveStrategy(ctx context.Context, tx pgx.Tx, teamID string, s *roster.TeamStrategy) error {
	if s == nil {
		if _, err := tx.Exec(ctx, `DELETE FROM team_strategies WHERE team_id = $1`, teamID); err != nil {
			return fmt.Errorf("removing strategy: %w", err)
		}
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO team_strategies
			(team_id, offensive_style, defensive_pressure, forecheck_intensity,
			 pp_style, pk_style, line_matching, pull_goalie_threshold)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (team_id) DO UPDATE SET
			offensive_style = EXCLUDED.offensive_style,
			defensive_pressure = EXCLUDED.defensive_pressure,
			forecheck_intensity = EXCLUDED.forecheck_intensity,
			pp_style = EXCLUDED.pp_style,
			pk_style = EXCLUDED.pk_style,
			line_matching = EXCLUDED.line_matching,
			pull_goalie_threshold = EXCLUDED.pull_goalie_threshold`,
		teamID, s.OffensiveStyle, s.DefensivePressure, s.ForecheckIntensity,
		s.PPStyle, s.PKStyle, s.LineMatching, s.PullGoalieThreshold,
	)
	if err != nil {
		return fmt.Errorf("upserting strategy: %w", err)
	}
	return nil
}

// LoadTeam assembles the stored roster for id. Players come back in the
// order they were saved.
//
// Postcondition: Returns the team, or ErrTeamNotFound.
func (r *TeamRepository) LoadTeam(ctx context.Context, id string) (*roster.Team, error) {
	t := &roster.Team{ID: id}
	err := r.db.QueryRow(ctx, `SELECT name FROM teams WHERE id = $1`, id).Scan(&t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading team %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, first_name, last_name, position, ratings
		FROM players WHERE team_id = $1 ORDER BY roster_order`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading players for %s: %w", id, err)
	}
	t.Players, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*roster.Player, error) {
		p := &roster.Player{TeamID: id}
		var pos string
		if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &pos, &p.Ratings); err != nil {
			return nil, err
		}
		p.Position = roster.Position(pos)
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning players for %s: %w", id, err)
	}

	var c roster.Coach
	err = r.db.QueryRow(ctx, `
		SELECT id, name, offense_specialty, defense_specialty, powerplay_specialty,
		       penalty_kill_specialty, line_management, motivation
		FROM coaches WHERE team_id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.OffenseSpecialty, &c.DefenseSpecialty, &c.PowerplaySpecialty,
		&c.PenaltyKillSpecialty, &c.LineManagement, &c.Motivation)
	switch {
	case err == nil:
		t.Coach = &c
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("loading coach for %s: %w", id, err)
	}

	var s roster.TeamStrategy
	err = r.db.QueryRow(ctx, `
		SELECT offensive_style, defensive_pressure, forecheck_intensity,
		       pp_style, pk_style, line_matching, pull_goalie_threshold
		FROM team_strategies WHERE team_id = $1`,
		id,
	).Scan(&s.OffensiveStyle, &s.DefensivePressure, &s.ForecheckIntensity,
		&s.PPStyle, &s.PKStyle, &s.LineMatching, &s.PullGoalieThreshold)
	switch {
	case err == nil:
		t.Strategy = &s
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("loading strategy for %s: %w", id, err)
	}

	return t, nil
}

// ListTeams returns every stored team ordered by name.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *TeamRepository) ListTeams(ctx context.Context) ([]TeamSummary, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM teams ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	teams, err := pgx.CollectRows(rows, pgx.RowToStructByPos[TeamSummary])
	if err != nil {
		return nil, fmt.Errorf("scanning teams: %w", err)
	}
	return teams, nil
}
