package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/linear_hunt_run.yaml")
	require.NoError(t, err)

	assert.Equal(t, "linear_hunt_run", scenario.Name)
	assert.Equal(t, "linear", scenario.Hunt)
	assert.Equal(t, []string{"testerteam", "otherteam"}, scenario.Teams)
	require.NotEmpty(t, scenario.Steps)

	assert.Equal(t, "development", scenario.Steps[0].HuntStart)
	assert.Equal(t, ActionHuntStart, scenario.Steps[0].Action())

	submit := scenario.Steps[2]
	require.NotNil(t, submit.Submit)
	assert.Equal(t, SubmitStep{Team: "testerteam", Puzzle: "puzzle1", Answer: "guess"}, *submit.Submit)
	require.NotNil(t, submit.Changed)
	assert.True(t, *submit.Changed)
}

func TestLoadScenario_ResolvesHuntFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/timed_release.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "hunts", "timed.cue"), scenario.HuntFile)
	assert.Equal(t, 30*time.Minute, scenario.Steps[0].Tick)
	assert.Equal(t, ActionTick, scenario.Steps[0].Action())
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
description: "misspelled section"
hunt: linear
steps:
  - hunt_start: r
assertion:
  - type: change_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingHuntFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: missing_hunt
description: "hunt file does not exist"
hunt: linear
hunt_file: nowhere.yaml
steps:
  - hunt_start: r
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hunt file not found")
}

func TestValidateScenario(t *testing.T) {
	yes := true
	base := func() Scenario {
		return Scenario{
			Name:        "s",
			Description: "d",
			Hunt:        "linear",
			Steps:       []Step{{HuntStart: "r"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{"valid", func(*Scenario) {}, ""},
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no hunt", func(s *Scenario) { s.Hunt = "" }, "hunt is required"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps list is required"},
		{"empty step", func(s *Scenario) { s.Steps = []Step{{}} }, "exactly one action"},
		{"two actions", func(s *Scenario) {
			s.Steps = []Step{{HuntStart: "r", Tick: time.Minute}}
		}, "exactly one action"},
		{"submit without puzzle", func(s *Scenario) {
			s.Steps = []Step{{Submit: &SubmitStep{Team: "t"}}}
		}, "submit needs team and puzzle"},
		{"grade without status", func(s *Scenario) {
			s.Steps = []Step{{Grade: &GradeStep{Submission: 1}}}
		}, "grade needs submission and status"},
		{"changed on hunt start", func(s *Scenario) {
			s.Steps = []Step{{HuntStart: "r", Changed: &yes}}
		}, "changed is not reported by hunt_start"},
		{"negative tick", func(s *Scenario) {
			s.Steps = []Step{{Tick: -time.Minute}}
		}, "tick must be positive"},
		{"unknown assertion", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: "final_state"}}
		}, `unknown assertion type "final_state"`},
		{"visibility without status", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertVisibility, Team: "t", Puzzle: "p"}}
		}, "team, puzzle and status are required"},
		{"change_order without pair", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertChangeOrder, Team: "t"}}
		}, "team and puzzle are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			err := validateScenario(&s)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
