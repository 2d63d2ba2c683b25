package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cube/internal/model"
)

// HuntStatusStore owns the visibility lifecycle of every (team, puzzle) pair
// and the append-only history of visibility changes. It also serves the
// team, puzzle and run records hunt logic reads.
//
// A pair that has never been written has the status set's default status;
// no row exists for it until the first actual change.
type HuntStatusStore struct {
	s   *Store
	set model.VisibilityStatusSet
}

// NewHuntStatusStore creates a HuntStatusStore validating against set.
func NewHuntStatusStore(s *Store, set model.VisibilityStatusSet) *HuntStatusStore {
	return &HuntStatusStore{s: s, set: set}
}

// VisibilityStatusSet returns the active visibility policy.
func (hs *HuntStatusStore) VisibilityStatusSet() model.VisibilityStatusSet {
	return hs.set
}

// GetVisibility returns the current status of (teamID, puzzleID), or the
// policy's default status if the pair has never been written.
func (hs *HuntStatusStore) GetVisibility(ctx context.Context, teamID, puzzleID string) (string, error) {
	status, err := hs.currentStatus(ctx, hs.s.db, teamID, puzzleID)
	if err != nil {
		return "", fmt.Errorf("get visibility %s/%s: %w", teamID, puzzleID, err)
	}
	return status, nil
}

// SetVisibility moves (teamID, puzzleID) to status.
//
// The call is a no-op (Changed=false) when status is not legal under the
// active policy, the ids are empty, or status equals the current status.
// On an actual change the current record is upserted and, if recordHistory
// is set, a history entry with the next sequence number is appended, all in
// one transaction. A VisibilityChanged event is returned for every actual
// change; its Seq is zero when history was not recorded.
func (hs *HuntStatusStore) SetVisibility(ctx context.Context, teamID, puzzleID, status string, recordHistory bool) (Mutation, error) {
	if teamID == "" || puzzleID == "" || !hs.set.IsAllowedStatus(status) {
		return Mutation{}, nil
	}

	var mut Mutation
	err := hs.s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := hs.currentStatus(ctx, tx, teamID, puzzleID)
		if err != nil {
			return err
		}
		if current == status {
			return nil
		}

		now := hs.s.timestamp()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO visibilities (team_id, puzzle_id, status, modified_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(team_id, puzzle_id) DO UPDATE SET
				status = excluded.status,
				modified_at = excluded.modified_at
		`, teamID, puzzleID, status, now.UnixMilli()); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}

		var seq int64
		if recordHistory {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO visibility_history
				(team_id, puzzle_id, old_status, new_status, changed_at)
				VALUES (?, ?, ?, ?, ?)
			`, teamID, puzzleID, current, status, now.UnixMilli())
			if err != nil {
				return fmt.Errorf("append history: %w", err)
			}
			seq, err = result.LastInsertId()
			if err != nil {
				return fmt.Errorf("history seq: %w", err)
			}
		}

		mut = Mutation{
			Changed: true,
			Events: []model.Event{model.VisibilityChanged{
				TeamID:    teamID,
				PuzzleID:  puzzleID,
				OldStatus: current,
				NewStatus: status,
				Seq:       seq,
			}},
		}
		return nil
	})
	if err != nil {
		return Mutation{}, fmt.Errorf("set visibility %s/%s: %w", teamID, puzzleID, err)
	}
	return mut, nil
}

// ListVisibilities returns the current status for every known team and
// puzzle, defaulted where never written. Empty filters match everything; a
// filter naming an unknown team or puzzle still yields its default rows.
// Results are ordered by team id, then puzzle order.
func (hs *HuntStatusStore) ListVisibilities(ctx context.Context, teamFilter, puzzleFilter string) ([]model.Visibility, error) {
	teamIDs := []string{teamFilter}
	if teamFilter == "" {
		teams, err := hs.GetTeams(ctx)
		if err != nil {
			return nil, fmt.Errorf("list visibilities: %w", err)
		}
		teamIDs = teamIDs[:0]
		for _, t := range teams {
			teamIDs = append(teamIDs, t.TeamID)
		}
	}

	puzzleIDs := []string{puzzleFilter}
	if puzzleFilter == "" {
		var err error
		puzzleIDs, err = hs.GetPuzzles(ctx)
		if err != nil {
			return nil, fmt.Errorf("list visibilities: %w", err)
		}
	}

	written, err := hs.writtenVisibilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list visibilities: %w", err)
	}

	out := make([]model.Visibility, 0, len(teamIDs)*len(puzzleIDs))
	for _, teamID := range teamIDs {
		for _, puzzleID := range puzzleIDs {
			status, ok := written[[2]string{teamID, puzzleID}]
			if !ok {
				status = hs.set.DefaultStatus()
			}
			out = append(out, model.Visibility{TeamID: teamID, PuzzleID: puzzleID, Status: status})
		}
	}
	return out, nil
}

// GetVisibilityChanges returns the full visibility history in sequence order.
func (hs *HuntStatusStore) GetVisibilityChanges(ctx context.Context) ([]model.VisibilityChange, error) {
	rows, err := hs.s.db.QueryContext(ctx, `
		SELECT seq, team_id, puzzle_id, old_status, new_status, changed_at
		FROM visibility_history
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get visibility changes: %w", err)
	}
	return scanVisibilityChanges(rows)
}

// GetVisibilityChangesFor returns the history of one (team, puzzle) pair in
// sequence order.
func (hs *HuntStatusStore) GetVisibilityChangesFor(ctx context.Context, teamID, puzzleID string) ([]model.VisibilityChange, error) {
	rows, err := hs.s.db.QueryContext(ctx, `
		SELECT seq, team_id, puzzle_id, old_status, new_status, changed_at
		FROM visibility_history
		WHERE team_id = ? AND puzzle_id = ?
		ORDER BY seq ASC
	`, teamID, puzzleID)
	if err != nil {
		return nil, fmt.Errorf("get visibility changes %s/%s: %w", teamID, puzzleID, err)
	}
	return scanVisibilityChanges(rows)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (hs *HuntStatusStore) currentStatus(ctx context.Context, q querier, teamID, puzzleID string) (string, error) {
	var status string
	err := q.QueryRowContext(ctx, `
		SELECT status FROM visibilities WHERE team_id = ? AND puzzle_id = ?
	`, teamID, puzzleID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return hs.set.DefaultStatus(), nil
	}
	if err != nil {
		return "", fmt.Errorf("select status: %w", err)
	}
	return status, nil
}

func (hs *HuntStatusStore) writtenVisibilities(ctx context.Context) (map[[2]string]string, error) {
	rows, err := hs.s.db.QueryContext(ctx, `SELECT team_id, puzzle_id, status FROM visibilities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	written := make(map[[2]string]string)
	for rows.Next() {
		var teamID, puzzleID, status string
		if err := rows.Scan(&teamID, &puzzleID, &status); err != nil {
			return nil, err
		}
		written[[2]string{teamID, puzzleID}] = status
	}
	return written, rows.Err()
}

func scanVisibilityChanges(rows *sql.Rows) ([]model.VisibilityChange, error) {
	defer rows.Close()

	changes := []model.VisibilityChange{}
	for rows.Next() {
		var (
			c         model.VisibilityChange
			changedAt int64
		)
		if err := rows.Scan(&c.Seq, &c.TeamID, &c.PuzzleID, &c.OldStatus, &c.NewStatus, &changedAt); err != nil {
			return nil, fmt.Errorf("scan visibility change: %w", err)
		}
		c.Timestamp = fromMillis(changedAt)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan visibility changes: %w", err)
	}
	return changes, nil
}
