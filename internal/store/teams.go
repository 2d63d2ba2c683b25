package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cube/internal/model"
)

// AddTeam inserts a team. Returns false if a team with the same id exists.
func (hs *HuntStatusStore) AddTeam(ctx context.Context, team model.Team) (bool, error) {
	if team.TeamID == "" {
		return false, nil
	}

	var inserted bool
	err := hs.s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO teams (team_id, email) VALUES (?, ?)
			ON CONFLICT(team_id) DO NOTHING
		`, team.TeamID, team.Email)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		inserted = n > 0
		if !inserted {
			return nil
		}
		for key, value := range team.Properties {
			if err := upsertTeamProperty(ctx, tx, team.TeamID, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("add team %s: %w", team.TeamID, err)
	}
	return inserted, nil
}

// GetTeam returns a team with its properties, or ErrNotFound.
func (hs *HuntStatusStore) GetTeam(ctx context.Context, teamID string) (model.Team, error) {
	team := model.Team{TeamID: teamID, Properties: map[string]string{}}
	err := hs.s.db.QueryRowContext(ctx, `
		SELECT email FROM teams WHERE team_id = ?
	`, teamID).Scan(&team.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Team{}, fmt.Errorf("get team %s: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return model.Team{}, fmt.Errorf("get team %s: %w", teamID, err)
	}

	rows, err := hs.s.db.QueryContext(ctx, `
		SELECT key, value FROM team_properties WHERE team_id = ? ORDER BY key
	`, teamID)
	if err != nil {
		return model.Team{}, fmt.Errorf("get team %s properties: %w", teamID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.Team{}, fmt.Errorf("get team %s properties: %w", teamID, err)
		}
		team.Properties[key] = value
	}
	if err := rows.Err(); err != nil {
		return model.Team{}, fmt.Errorf("get team %s properties: %w", teamID, err)
	}
	return team, nil
}

// GetTeams returns every team ordered by id. Properties are not loaded.
func (hs *HuntStatusStore) GetTeams(ctx context.Context) ([]model.Team, error) {
	rows, err := hs.s.db.QueryContext(ctx, `
		SELECT team_id, email FROM teams ORDER BY team_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get teams: %w", err)
	}
	defer rows.Close()

	teams := []model.Team{}
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.TeamID, &t.Email); err != nil {
			return nil, fmt.Errorf("get teams: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get teams: %w", err)
	}
	return teams, nil
}

// SetTeamProperty writes one property of an existing team.
// Returns ErrNotFound if the team does not exist.
func (hs *HuntStatusStore) SetTeamProperty(ctx context.Context, teamID, key, value string) error {
	err := hs.s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM teams WHERE team_id = ?`, teamID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select team: %w", err)
		}
		return upsertTeamProperty(ctx, tx, teamID, key, value)
	})
	if err != nil {
		return fmt.Errorf("set team %s property %q: %w", teamID, key, err)
	}
	return nil
}

func upsertTeamProperty(ctx context.Context, tx *sql.Tx, teamID, key, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO team_properties (team_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(team_id, key) DO UPDATE SET value = excluded.value
	`, teamID, key, value)
	if err != nil {
		return fmt.Errorf("upsert property: %w", err)
	}
	return nil
}

// AddPuzzles registers puzzle ids. Existing ids are ignored.
func (hs *HuntStatusStore) AddPuzzles(ctx context.Context, puzzleIDs []string) error {
	return hs.s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range puzzleIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO puzzles (puzzle_id) VALUES (?)
				ON CONFLICT(puzzle_id) DO NOTHING
			`, id); err != nil {
				return fmt.Errorf("add puzzle %s: %w", id, err)
			}
		}
		return nil
	})
}

// GetPuzzles returns every registered puzzle id in registration order.
func (hs *HuntStatusStore) GetPuzzles(ctx context.Context) ([]string, error) {
	rows, err := hs.s.db.QueryContext(ctx, `SELECT puzzle_id FROM puzzles ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("get puzzles: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("get puzzles: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get puzzles: %w", err)
	}
	return ids, nil
}

// StartRun records the start time of runID. Returns false if the run had
// already been started; the original start time is kept.
func (hs *HuntStatusStore) StartRun(ctx context.Context, runID string, at time.Time) (bool, error) {
	var started bool
	err := hs.s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO run (run_id, start_timestamp) VALUES (?, ?)
			ON CONFLICT(run_id) DO UPDATE SET start_timestamp = excluded.start_timestamp
			WHERE run.start_timestamp IS NULL
		`, runID, at.UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		started = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("start run %s: %w", runID, err)
	}
	return started, nil
}

// GetRun returns the run record, or ErrNotFound if it was never started.
func (hs *HuntStatusStore) GetRun(ctx context.Context, runID string) (model.Run, error) {
	var start sql.NullInt64
	err := hs.s.db.QueryRowContext(ctx, `
		SELECT start_timestamp FROM run WHERE run_id = ?
	`, runID).Scan(&start)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("get run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return runFromRow(runID, start), nil
}

// ActiveRun returns the most recently started run, or ErrNotFound if no run
// is currently started.
func (hs *HuntStatusStore) ActiveRun(ctx context.Context) (model.Run, error) {
	var (
		runID string
		start sql.NullInt64
	)
	err := hs.s.db.QueryRowContext(ctx, `
		SELECT run_id, start_timestamp FROM run
		WHERE start_timestamp IS NOT NULL
		ORDER BY start_timestamp DESC, run_id ASC
		LIMIT 1
	`).Scan(&runID, &start)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("active run: %w", ErrNotFound)
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("active run: %w", err)
	}
	return runFromRow(runID, start), nil
}

func runFromRow(runID string, start sql.NullInt64) model.Run {
	run := model.Run{RunID: runID}
	if start.Valid {
		t := fromMillis(start.Int64)
		run.StartedAt = &t
	}
	return run
}
