package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cube/internal/model"
)

// SubmissionStore owns the submission lifecycle. It persists submissions and
// status changes and reports the resulting events; it does not check
// visibility, which is the caller's job.
type SubmissionStore struct {
	s *Store
}

// NewSubmissionStore creates a SubmissionStore on top of s.
func NewSubmissionStore(s *Store) *SubmissionStore {
	return &SubmissionStore{s: s}
}

// AddSubmission persists a new SUBMITTED submission and returns it together
// with a SubmissionCreated event. Empty team or puzzle ids are rejected with
// Mutation{Changed: false}.
func (ss *SubmissionStore) AddSubmission(ctx context.Context, teamID, puzzleID, answer string) (model.Submission, Mutation, error) {
	if teamID == "" || puzzleID == "" {
		return model.Submission{}, Mutation{}, nil
	}

	now := ss.s.timestamp()
	sub := model.Submission{
		TeamID:     teamID,
		PuzzleID:   puzzleID,
		Answer:     answer,
		Status:     model.DefaultSubmissionStatus,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	err := ss.s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO submissions
			(team_id, puzzle_id, answer, status, created_at, modified_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			sub.TeamID,
			sub.PuzzleID,
			sub.Answer,
			string(sub.Status),
			now.UnixMilli(),
			now.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		sub.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Submission{}, Mutation{}, fmt.Errorf("add submission: %w", err)
	}

	return sub, Mutation{
		Changed: true,
		Events: []model.Event{model.SubmissionCreated{
			SubmissionID: sub.ID,
			TeamID:       sub.TeamID,
			PuzzleID:     sub.PuzzleID,
		}},
	}, nil
}

// GetSubmission returns the submission with the given id, or ErrNotFound.
func (ss *SubmissionStore) GetSubmission(ctx context.Context, id int64) (model.Submission, error) {
	row := ss.s.db.QueryRowContext(ctx, `
		SELECT id, team_id, puzzle_id, answer, status, created_at, modified_at
		FROM submissions
		WHERE id = ?
	`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Submission{}, fmt.Errorf("get submission %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Submission{}, fmt.Errorf("get submission %d: %w", id, err)
	}
	return sub, nil
}

// GetAllSubmissions returns every submission in insertion order.
func (ss *SubmissionStore) GetAllSubmissions(ctx context.Context) ([]model.Submission, error) {
	rows, err := ss.s.db.QueryContext(ctx, `
		SELECT id, team_id, puzzle_id, answer, status, created_at, modified_at
		FROM submissions
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get all submissions: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("get all submissions: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get all submissions: %w", err)
	}
	return subs, nil
}

// UpdateStatus moves a submission to status and returns a
// SubmissionStatusChanged event.
//
// The update is a no-op (Changed=false) when status is not a valid
// submission status, equals the current status, or the submission is
// already terminal. Returns ErrNotFound for an unknown id.
func (ss *SubmissionStore) UpdateStatus(ctx context.Context, id int64, status model.SubmissionStatus) (Mutation, error) {
	if !status.Valid() {
		return Mutation{}, nil
	}

	var mut Mutation
	err := ss.s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, team_id, puzzle_id, answer, status, created_at, modified_at
			FROM submissions
			WHERE id = ?
		`, id)
		current, err := scanSubmission(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}

		if current.Status.Terminal() || current.Status == status {
			return nil
		}

		now := ss.s.timestamp()
		if _, err := tx.ExecContext(ctx, `
			UPDATE submissions SET status = ?, modified_at = ? WHERE id = ?
		`, string(status), now.UnixMilli(), id); err != nil {
			return fmt.Errorf("update: %w", err)
		}

		mut = Mutation{
			Changed: true,
			Events: []model.Event{model.SubmissionStatusChanged{
				SubmissionID: id,
				TeamID:       current.TeamID,
				PuzzleID:     current.PuzzleID,
				OldStatus:    current.Status,
				NewStatus:    status,
			}},
		}
		return nil
	})
	if err != nil {
		return Mutation{}, fmt.Errorf("update submission %d: %w", id, err)
	}
	return mut, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (model.Submission, error) {
	var (
		sub        model.Submission
		status     string
		createdAt  int64
		modifiedAt int64
	)
	if err := row.Scan(
		&sub.ID,
		&sub.TeamID,
		&sub.PuzzleID,
		&sub.Answer,
		&status,
		&createdAt,
		&modifiedAt,
	); err != nil {
		return model.Submission{}, err
	}
	sub.Status = model.SubmissionStatus(status)
	sub.CreatedAt = fromMillis(createdAt)
	sub.ModifiedAt = fromMillis(modifiedAt)
	return sub, nil
}
