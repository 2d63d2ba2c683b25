package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a hunt scenario: who plays, what happens, and what the
// final state must look like.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Hunt is the hunt variant tag, e.g. "linear".
	Hunt string `yaml:"hunt"`

	// HuntFile is an optional variant-specific hunt file. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	HuntFile string `yaml:"hunt_file,omitempty"`

	// Teams are registered before the first step.
	Teams []string `yaml:"teams"`

	// Steps run in order; each is one serialized operation.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and history.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation. Exactly one action field must be set.
type Step struct {
	HuntStart     string          `yaml:"hunt_start,omitempty"`
	Submit        *SubmitStep     `yaml:"submit,omitempty"`
	Grade         *GradeStep      `yaml:"grade,omitempty"`
	FullRelease   *ReleaseStep    `yaml:"full_release,omitempty"`
	SetVisibility *VisibilityStep `yaml:"set_visibility,omitempty"`

	// Tick advances the scenario clock by the given duration and then
	// dispatches a PeriodicTimer event.
	Tick time.Duration `yaml:"tick,omitempty"`

	// Changed is the expected created/updated result of a submit, grade or
	// set_visibility step. Nil means the result is not checked.
	Changed *bool `yaml:"changed,omitempty"`
}

// SubmitStep creates a submission, subject to the visibility check.
type SubmitStep struct {
	Team   string `yaml:"team"`
	Puzzle string `yaml:"puzzle"`
	Answer string `yaml:"answer"`
}

// GradeStep moves a submission to a new status.
type GradeStep struct {
	Submission int64  `yaml:"submission"`
	Status     string `yaml:"status"`
}

// ReleaseStep posts a FullRelease event.
type ReleaseStep struct {
	Run    string `yaml:"run"`
	Puzzle string `yaml:"puzzle"`
}

// VisibilityStep is an administrative visibility override.
type VisibilityStep struct {
	Team   string `yaml:"team"`
	Puzzle string `yaml:"puzzle"`
	Status string `yaml:"status"`
}

// Step action names, as reported in results and errors.
const (
	ActionHuntStart     = "hunt_start"
	ActionSubmit        = "submit"
	ActionGrade         = "grade"
	ActionFullRelease   = "full_release"
	ActionSetVisibility = "set_visibility"
	ActionTick          = "tick"
)

// Action returns the name of the step's action, or "" if none or more than
// one is set.
func (s Step) Action() string {
	var actions []string
	if s.HuntStart != "" {
		actions = append(actions, ActionHuntStart)
	}
	if s.Submit != nil {
		actions = append(actions, ActionSubmit)
	}
	if s.Grade != nil {
		actions = append(actions, ActionGrade)
	}
	if s.FullRelease != nil {
		actions = append(actions, ActionFullRelease)
	}
	if s.SetVisibility != nil {
		actions = append(actions, ActionSetVisibility)
	}
	if s.Tick != 0 {
		actions = append(actions, ActionTick)
	}
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "visibility": status of (Team, Puzzle) equals Status
	// - "submission": status of Submission equals Status
	// - "change_count": Count history entries, filtered by Team and Puzzle
	// - "change_order": new statuses of (Team, Puzzle) equal Statuses
	Type string `yaml:"type"`

	Team       string   `yaml:"team,omitempty"`
	Puzzle     string   `yaml:"puzzle,omitempty"`
	Submission int64    `yaml:"submission,omitempty"`
	Status     string   `yaml:"status,omitempty"`
	Count      int      `yaml:"count,omitempty"`
	Statuses   []string `yaml:"statuses,omitempty"`
}

// Assertion type constants.
const (
	AssertVisibility  = "visibility"
	AssertSubmission  = "submission"
	AssertChangeCount = "change_count"
	AssertChangeOrder = "change_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.HuntFile != "" && !filepath.IsAbs(scenario.HuntFile) {
		scenario.HuntFile = filepath.Join(filepath.Dir(path), scenario.HuntFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Hunt == "" {
		return fmt.Errorf("hunt is required")
	}

	if s.HuntFile != "" {
		if _, err := os.Stat(s.HuntFile); os.IsNotExist(err) {
			return fmt.Errorf("hunt file not found: %s", s.HuntFile)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step) error {
	action := step.Action()
	switch action {
	case "":
		return fmt.Errorf("steps[%d]: exactly one action is required", index)
	case ActionSubmit:
		if step.Submit.Team == "" || step.Submit.Puzzle == "" {
			return fmt.Errorf("steps[%d]: submit needs team and puzzle", index)
		}
	case ActionGrade:
		if step.Grade.Submission <= 0 || step.Grade.Status == "" {
			return fmt.Errorf("steps[%d]: grade needs submission and status", index)
		}
	case ActionFullRelease:
		if step.FullRelease.Run == "" || step.FullRelease.Puzzle == "" {
			return fmt.Errorf("steps[%d]: full_release needs run and puzzle", index)
		}
	case ActionSetVisibility:
		if step.SetVisibility.Team == "" || step.SetVisibility.Puzzle == "" {
			return fmt.Errorf("steps[%d]: set_visibility needs team and puzzle", index)
		}
	case ActionTick:
		if step.Tick < 0 {
			return fmt.Errorf("steps[%d]: tick must be positive", index)
		}
	}

	if step.Changed != nil {
		switch action {
		case ActionSubmit, ActionGrade, ActionSetVisibility:
		default:
			return fmt.Errorf("steps[%d]: changed is not reported by %s", index, action)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertVisibility:
		if a.Team == "" || a.Puzzle == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: team, puzzle and status are required for visibility", index)
		}
	case AssertSubmission:
		if a.Submission <= 0 || a.Status == "" {
			return fmt.Errorf("assertions[%d]: submission and status are required for submission", index)
		}
	case AssertChangeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for change_count", index)
		}
	case AssertChangeOrder:
		if a.Team == "" || a.Puzzle == "" {
			return fmt.Errorf("assertions[%d]: team and puzzle are required for change_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
