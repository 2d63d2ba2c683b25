package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cube/internal/hunt"
	"github.com/roach88/cube/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string                   // Assertion type for categorization
	Expected string                   // Human-readable expected outcome
	Actual   string                   // Human-readable actual outcome
	History  []model.VisibilityChange // Visibility history for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.History) > 0 {
		fmt.Fprintf(&buf, "\nVisibility history:\n")
		for _, c := range e.History {
			fmt.Fprintf(&buf, "  [%d] %s/%s %s -> %s\n", c.Seq, c.TeamID, c.PuzzleID, c.OldStatus, c.NewStatus)
		}
	}

	return buf.String()
}

// AssertionContext is what assertions read final state from.
type AssertionContext struct {
	Service *hunt.Service
	Changes []model.VisibilityChange
	Ctx     context.Context
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertVisibility:
		return assertVisibility(a, actx)
	case AssertSubmission:
		return assertSubmission(a, actx)
	case AssertChangeCount:
		return assertChangeCount(a, actx.Changes)
	case AssertChangeOrder:
		return assertChangeOrder(a, actx.Changes)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertVisibility(a Assertion, actx *AssertionContext) error {
	v, err := actx.Service.Visibility(actx.Ctx, a.Team, a.Puzzle)
	if err != nil {
		return err
	}
	if v.Status != a.Status {
		return &AssertionError{
			Type:     AssertVisibility,
			Expected: fmt.Sprintf("%s/%s is %s", a.Team, a.Puzzle, a.Status),
			Actual:   v.Status,
			History:  actx.Changes,
		}
	}
	return nil
}

func assertSubmission(a Assertion, actx *AssertionContext) error {
	sub, err := actx.Service.Submission(actx.Ctx, a.Submission)
	if err != nil {
		return &AssertionError{
			Type:     AssertSubmission,
			Expected: fmt.Sprintf("submission %d is %s", a.Submission, a.Status),
			Actual:   err.Error(),
		}
	}
	if string(sub.Status) != a.Status {
		return &AssertionError{
			Type:     AssertSubmission,
			Expected: fmt.Sprintf("submission %d is %s", a.Submission, a.Status),
			Actual:   string(sub.Status),
		}
	}
	return nil
}

// assertChangeCount counts history entries matching the optional team and
// puzzle filters.
func assertChangeCount(a Assertion, changes []model.VisibilityChange) error {
	count := len(selectChanges(changes, a.Team, a.Puzzle))
	if count != a.Count {
		return &AssertionError{
			Type:     AssertChangeCount,
			Expected: fmt.Sprintf("%d change(s) for %s", a.Count, describeFilter(a.Team, a.Puzzle)),
			Actual:   fmt.Sprintf("%d change(s)", count),
			History:  changes,
		}
	}
	return nil
}

// assertChangeOrder checks that the pair's history, in sequence order, moved
// through exactly the listed statuses.
func assertChangeOrder(a Assertion, changes []model.VisibilityChange) error {
	var got []string
	for _, c := range selectChanges(changes, a.Team, a.Puzzle) {
		got = append(got, c.NewStatus)
	}
	if !slices.Equal(got, a.Statuses) {
		return &AssertionError{
			Type:     AssertChangeOrder,
			Expected: fmt.Sprintf("%s/%s moved through %v", a.Team, a.Puzzle, a.Statuses),
			Actual:   fmt.Sprintf("%v", got),
			History:  changes,
		}
	}
	return nil
}

func selectChanges(changes []model.VisibilityChange, team, puzzle string) []model.VisibilityChange {
	var out []model.VisibilityChange
	for _, c := range changes {
		if team != "" && c.TeamID != team {
			continue
		}
		if puzzle != "" && c.PuzzleID != puzzle {
			continue
		}
		out = append(out, c)
	}
	return out
}

func describeFilter(team, puzzle string) string {
	switch {
	case team == "" && puzzle == "":
		return "all pairs"
	case puzzle == "":
		return "team " + team
	case team == "":
		return "puzzle " + puzzle
	default:
		return team + "/" + puzzle
	}
}
