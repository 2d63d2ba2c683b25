package harness

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cube/internal/model"
)

// RenderChanges formats a visibility history for golden comparison: one
// line per change in sequence order. Timestamps are left out so the output
// depends only on the order of transitions.
func RenderChanges(scenarioName string, changes []model.VisibilityChange) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)
	for _, c := range changes {
		fmt.Fprintf(&buf, "%d\t%s/%s\t%s -> %s\n", c.Seq, c.TeamID, c.PuzzleID, c.OldStatus, c.NewStatus)
	}
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its visibility history
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the history doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's history against the golden
// file named scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, RenderChanges(scenarioName, result.Changes))
}
