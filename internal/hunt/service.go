package hunt

import (
	"context"
	"fmt"

	"github.com/roach88/cube/internal/engine"
	"github.com/roach88/cube/internal/model"
	"github.com/roach88/cube/internal/store"
)

// Service is the entry point for every hunt operation.
//
// Mutating calls run on the Engine together with their cascade and return
// only once the cascade has drained, so a read issued after a mutation
// returns observes all of its effects. Reads go straight to the stores.
type Service struct {
	engine *engine.Engine
	subs   *store.SubmissionStore
	hs     *store.HuntStatusStore
}

// NewService creates a Service. e must be running for mutations to complete.
func NewService(e *engine.Engine, subs *store.SubmissionStore, hs *store.HuntStatusStore) *Service {
	return &Service{engine: e, subs: subs, hs: hs}
}

// StatusSet returns the active visibility policy.
func (s *Service) StatusSet() model.VisibilityStatusSet {
	return s.hs.VisibilityStatusSet()
}

// Submit records an answer for (teamID, puzzleID). The answer is normalized
// before it is stored. Returns false, without error, when the puzzle's
// current visibility does not accept submissions for the team.
func (s *Service) Submit(ctx context.Context, teamID, puzzleID, answer string) (model.Submission, bool, error) {
	var (
		sub      model.Submission
		accepted bool
	)
	_, err := s.engine.Do(ctx, func(ctx context.Context) ([]model.Event, error) {
		status, err := s.hs.GetVisibility(ctx, teamID, puzzleID)
		if err != nil {
			return nil, err
		}
		if !s.hs.VisibilityStatusSet().AllowsSubmissions(status) {
			return nil, nil
		}

		created, mut, err := s.subs.AddSubmission(ctx, teamID, puzzleID, model.NormalizeAnswer(answer))
		if err != nil {
			return nil, err
		}
		sub, accepted = created, mut.Changed
		return mut.Events, nil
	})
	if err != nil {
		return model.Submission{}, false, fmt.Errorf("submit %s/%s: %w", teamID, puzzleID, err)
	}
	return sub, accepted, nil
}

// UpdateSubmission moves a submission to status. Returns false when the
// status is invalid, unchanged, or the submission is already terminal, and
// store.ErrNotFound for an unknown id.
func (s *Service) UpdateSubmission(ctx context.Context, id int64, status model.SubmissionStatus) (bool, error) {
	var changed bool
	_, err := s.engine.Do(ctx, func(ctx context.Context) ([]model.Event, error) {
		mut, err := s.subs.UpdateStatus(ctx, id, status)
		if err != nil {
			return nil, err
		}
		changed = mut.Changed
		return mut.Events, nil
	})
	if err != nil {
		return false, fmt.Errorf("update submission %d: %w", id, err)
	}
	return changed, nil
}

// SetVisibility is the administrative override for one (team, puzzle) pair.
// The change is always recorded in the history. Returns false for an illegal
// or unchanged status.
func (s *Service) SetVisibility(ctx context.Context, teamID, puzzleID, status string) (bool, error) {
	var changed bool
	_, err := s.engine.Do(ctx, func(ctx context.Context) ([]model.Event, error) {
		mut, err := s.hs.SetVisibility(ctx, teamID, puzzleID, status, true)
		if err != nil {
			return nil, err
		}
		changed = mut.Changed
		return mut.Events, nil
	})
	if err != nil {
		return false, fmt.Errorf("set visibility %s/%s: %w", teamID, puzzleID, err)
	}
	return changed, nil
}

// PostEvent dispatches an administrative event and waits for its cascade.
func (s *Service) PostEvent(ctx context.Context, ev model.Event) error {
	if _, err := s.engine.Process(ctx, ev); err != nil {
		return fmt.Errorf("process %s: %w", ev.Kind(), err)
	}
	return nil
}

func (s *Service) Submission(ctx context.Context, id int64) (model.Submission, error) {
	return s.subs.GetSubmission(ctx, id)
}

func (s *Service) Submissions(ctx context.Context) ([]model.Submission, error) {
	return s.subs.GetAllSubmissions(ctx)
}

// Visibility returns the current status of one pair, defaulted if unwritten.
func (s *Service) Visibility(ctx context.Context, teamID, puzzleID string) (model.Visibility, error) {
	status, err := s.hs.GetVisibility(ctx, teamID, puzzleID)
	if err != nil {
		return model.Visibility{}, err
	}
	return model.Visibility{TeamID: teamID, PuzzleID: puzzleID, Status: status}, nil
}

func (s *Service) Visibilities(ctx context.Context, teamID, puzzleID string) ([]model.Visibility, error) {
	return s.hs.ListVisibilities(ctx, teamID, puzzleID)
}

func (s *Service) VisibilityChanges(ctx context.Context) ([]model.VisibilityChange, error) {
	return s.hs.GetVisibilityChanges(ctx)
}

func (s *Service) Team(ctx context.Context, teamID string) (model.Team, error) {
	return s.hs.GetTeam(ctx, teamID)
}

func (s *Service) Teams(ctx context.Context) ([]model.Team, error) {
	return s.hs.GetTeams(ctx)
}
