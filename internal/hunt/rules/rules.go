// Package rules provides the unlock handlers hunt definitions compose.
//
// Every handler reads current state from the HuntStatusStore on each
// invocation and returns the events its writes produced. Handlers that
// unlock puzzles only ever advance a pair in the order of the store's
// status set: a puzzle that is already UNLOCKED or SOLVED is left alone.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/cube/internal/engine"
	"github.com/roach88/cube/internal/model"
	"github.com/roach88/cube/internal/store"
)

// RecordRunStart stores the start time of the run named by a HuntStart.
// A run that was already started keeps its original start time.
func RecordRunStart(hs *store.HuntStatusStore, now func() time.Time) engine.Handler {
	return engine.HandlerFunc(func(ctx context.Context, ev model.Event) ([]model.Event, error) {
		start, ok := ev.(model.HuntStart)
		if !ok {
			return nil, nil
		}
		started, err := hs.StartRun(ctx, start.RunID, now())
		if err != nil {
			return nil, err
		}
		if started {
			slog.Info("run started", "run_id", start.RunID)
		} else {
			slog.Info("run already started", "run_id", start.RunID)
		}
		return nil, nil
	})
}

// UnlockOnHuntStart unlocks the given puzzles for every team when the hunt
// starts.
func UnlockOnHuntStart(hs *store.HuntStatusStore, puzzleIDs ...string) engine.Handler {
	return engine.HandlerFunc(func(ctx context.Context, ev model.Event) ([]model.Event, error) {
		if _, ok := ev.(model.HuntStart); !ok {
			return nil, nil
		}
		return unlockForAllTeams(ctx, hs, puzzleIDs...)
	})
}

// SolveOnCorrectSubmission marks a puzzle SOLVED for a team once one of the
// team's submissions for it is graded CORRECT.
func SolveOnCorrectSubmission(hs *store.HuntStatusStore) engine.Handler {
	return engine.HandlerFunc(func(ctx context.Context, ev model.Event) ([]model.Event, error) {
		changed, ok := ev.(model.SubmissionStatusChanged)
		if !ok || changed.NewStatus != model.SubmissionCorrect {
			return nil, nil
		}
		mut, err := hs.SetVisibility(ctx, changed.TeamID, changed.PuzzleID, model.VisibilitySolved, true)
		if err != nil {
			return nil, err
		}
		return mut.Events, nil
	})
}

// UnlockSuccessors unlocks the successors of a puzzle for a team once the
// team has solved it. successors maps a puzzle id to the ids it opens.
func UnlockSuccessors(hs *store.HuntStatusStore, successors map[string][]string) engine.Handler {
	return engine.HandlerFunc(func(ctx context.Context, ev model.Event) ([]model.Event, error) {
		changed, ok := ev.(model.VisibilityChanged)
		if !ok || changed.NewStatus != model.VisibilitySolved {
			return nil, nil
		}
		var events []model.Event
		for _, next := range successors[changed.PuzzleID] {
			evs, err := advance(ctx, hs, changed.TeamID, next, model.VisibilityUnlocked)
			if err != nil {
				return nil, err
			}
			events = append(events, evs...)
		}
		return events, nil
	})
}

// FullRelease handles the administrative FullRelease event: the named
// puzzle becomes UNLOCKED for every team regardless of prerequisites.
// Teams that already solved it keep SOLVED.
func FullRelease(hs *store.HuntStatusStore) engine.Handler {
	return engine.HandlerFunc(func(ctx context.Context, ev model.Event) ([]model.Event, error) {
		release, ok := ev.(model.FullRelease)
		if !ok {
			return nil, nil
		}
		slog.Info("full release", "run_id", release.RunID, "puzzle_id", release.PuzzleID)
		return unlockForAllTeams(ctx, hs, release.PuzzleID)
	})
}

// Release schedules a puzzle to open for every team After the run started.
type Release struct {
	PuzzleID string
	After    time.Duration
}

// TimedRelease unlocks scheduled puzzles on PeriodicTimer ticks once their
// offset from the active run's start has elapsed. Ticks before any run has
// started are ignored.
func TimedRelease(hs *store.HuntStatusStore, schedule []Release) engine.Handler {
	return engine.HandlerFunc(func(ctx context.Context, ev model.Event) ([]model.Event, error) {
		tick, ok := ev.(model.PeriodicTimer)
		if !ok || len(schedule) == 0 {
			return nil, nil
		}
		run, err := hs.ActiveRun(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		var events []model.Event
		for _, r := range schedule {
			if tick.FiredAt.Before(run.StartedAt.Add(r.After)) {
				continue
			}
			evs, err := unlockForAllTeams(ctx, hs, r.PuzzleID)
			if err != nil {
				return nil, err
			}
			events = append(events, evs...)
		}
		return events, nil
	})
}

func unlockForAllTeams(ctx context.Context, hs *store.HuntStatusStore, puzzleIDs ...string) ([]model.Event, error) {
	teams, err := hs.GetTeams(ctx)
	if err != nil {
		return nil, err
	}
	var events []model.Event
	for _, team := range teams {
		for _, puzzleID := range puzzleIDs {
			evs, err := advance(ctx, hs, team.TeamID, puzzleID, model.VisibilityUnlocked)
			if err != nil {
				return nil, err
			}
			events = append(events, evs...)
		}
	}
	return events, nil
}

// advance moves (teamID, puzzleID) to target unless it is already at or
// beyond it in the active status set's order. A target the set does not
// contain is logged and skipped.
func advance(ctx context.Context, hs *store.HuntStatusStore, teamID, puzzleID, target string) ([]model.Event, error) {
	set := hs.VisibilityStatusSet()
	targetRank := model.RankIn(set, target)
	if targetRank < 0 {
		slog.Warn("unlock target not in status set", "status", target, "team_id", teamID, "puzzle_id", puzzleID)
		return nil, nil
	}
	current, err := hs.GetVisibility(ctx, teamID, puzzleID)
	if err != nil {
		return nil, err
	}
	if model.RankIn(set, current) >= targetRank {
		return nil, nil
	}
	mut, err := hs.SetVisibility(ctx, teamID, puzzleID, target, true)
	if err != nil {
		return nil, fmt.Errorf("advance %s/%s to %s: %w", teamID, puzzleID, target, err)
	}
	return mut.Events, nil
}
