package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/cube/internal/engine"
	"github.com/roach88/cube/internal/hunt"
	"github.com/roach88/cube/internal/hunt/catalog"
	"github.com/roach88/cube/internal/model"
	"github.com/roach88/cube/internal/store"
	"github.com/roach88/cube/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every changed expectation and assertion held.
	Pass bool `json:"pass"`

	// Steps records what each step did, in order.
	Steps []StepResult `json:"steps"`

	// Changes is the full visibility history after the last step.
	Changes []model.VisibilityChange `json:"changes"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// StepResult records one executed step.
type StepResult struct {
	Index   int    `json:"index"`
	Action  string `json:"action"`
	Cascade string `json:"cascade,omitempty"`
	Changed *bool  `json:"changed,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Steps:   []StepResult{},
		Changes: []model.VisibilityChange{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Harness holds the per-run wiring. The engine runs on its own goroutine.
type Harness struct {
	engine  *engine.Engine
	service *hunt.Service
	clock   *testutil.WallClock
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. The wall clock starts at
// testutil.Epoch and advances one second per reading; cascade tokens are
// "cascade-1", "cascade-2", and so on.
//
// Errors are returned for broken wiring or a failed cascade. Unmet
// expectations are reported in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	def, err := catalog.Lookup(scenario.Hunt, scenario.HuntFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load hunt: %w", err)
	}

	clock := testutil.NewWallClock(time.Second)
	st, err := store.Open(":memory:", store.WithNow(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	hs := store.NewHuntStatusStore(st, def.StatusSet())
	if err := hunt.Install(ctx, hs, def); err != nil {
		return nil, err
	}
	for _, team := range scenario.Teams {
		if _, err := hs.AddTeam(ctx, model.Team{TeamID: team}); err != nil {
			return nil, fmt.Errorf("failed to add team %s: %w", team, err)
		}
	}

	proc := engine.NewProcessor()
	hunt.Wire(proc, hs, def, clock.Now)
	eng := engine.New(proc, testutil.NewSequenceGenerator("cascade"))

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = eng.Run(context.Background())
	}()
	defer func() {
		eng.Stop()
		<-runDone
	}()

	h := &Harness{
		engine:  eng,
		service: hunt.NewService(eng, store.NewSubmissionStore(st), hs),
		clock:   clock,
		logger:  slog.Default().With("scenario", scenario.Name),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action(), err)
		}
		sr.Index = i
		result.Steps = append(result.Steps, sr)

		if step.Changed != nil && sr.Changed != nil && *step.Changed != *sr.Changed {
			result.AddError(fmt.Sprintf("step %d (%s): expected changed=%t, got %t",
				i, sr.Action, *step.Changed, *sr.Changed))
		}
	}

	changes, err := hs.GetVisibilityChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read visibility changes: %w", err)
	}
	result.Changes = changes

	actx := &AssertionContext{
		Service: h.service,
		Changes: changes,
		Ctx:     ctx,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one step through the Service, the same path the request
// layer takes.
func (h *Harness) executeStep(ctx context.Context, step Step) (StepResult, error) {
	sr := StepResult{Action: step.Action()}

	var (
		changed bool
		err     error
	)
	switch sr.Action {
	case ActionHuntStart:
		err = h.service.PostEvent(ctx, model.HuntStart{RunID: step.HuntStart})
		return sr, err

	case ActionFullRelease:
		err = h.service.PostEvent(ctx, model.FullRelease{
			RunID:    step.FullRelease.Run,
			PuzzleID: step.FullRelease.Puzzle,
		})
		return sr, err

	case ActionTick:
		h.clock.Advance(step.Tick)
		var cascade engine.Cascade
		cascade, err = h.engine.Process(ctx, model.PeriodicTimer{FiredAt: h.clock.Now()})
		sr.Cascade = cascade.Token
		return sr, err

	case ActionSubmit:
		var sub model.Submission
		sub, changed, err = h.service.Submit(ctx, step.Submit.Team, step.Submit.Puzzle, step.Submit.Answer)
		if changed {
			h.logger.Debug("submission created", "submission_id", sub.ID)
		}

	case ActionGrade:
		changed, err = h.service.UpdateSubmission(ctx, step.Grade.Submission, model.SubmissionStatus(step.Grade.Status))

	case ActionSetVisibility:
		changed, err = h.service.SetVisibility(ctx, step.SetVisibility.Team, step.SetVisibility.Puzzle, step.SetVisibility.Status)

	default:
		return sr, fmt.Errorf("unknown step action")
	}

	if err != nil {
		return sr, err
	}
	sr.Changed = &changed
	return sr, nil
}
