// Package linear implements the linear example hunt: puzzles open one after
// another as each predecessor is solved.
package linear

import (
	"errors"
	"fmt"

	"github.com/roach88/cube/internal/engine"
	"github.com/roach88/cube/internal/hunt/rules"
	"github.com/roach88/cube/internal/model"
	"github.com/roach88/cube/internal/store"
)

// Name is the variant tag of the linear hunt.
const Name = "linear"

// Config is the shape of a linear hunt. It can be loaded from a CUE hunt
// file (see LoadConfig). Each puzzle unlocks the next one in the list when
// solved.
type Config struct {
	Puzzles  []string
	Initial  []string
	Releases []rules.Release
}

// DefaultConfig is the five-puzzle chain with puzzle1 open at start.
func DefaultConfig() Config {
	return Config{
		Puzzles: []string{"puzzle1", "puzzle2", "puzzle3", "puzzle4", "puzzle5"},
		Initial: []string{"puzzle1"},
	}
}

// Validate checks that the configuration describes a usable hunt.
func (c Config) Validate() error {
	if len(c.Puzzles) == 0 {
		return errors.New("at least one puzzle is required")
	}
	known := make(map[string]bool, len(c.Puzzles))
	for _, id := range c.Puzzles {
		if id == "" {
			return errors.New("puzzle id must not be empty")
		}
		if known[id] {
			return fmt.Errorf("duplicate puzzle %q", id)
		}
		known[id] = true
	}
	for _, id := range c.Initial {
		if !known[id] {
			return fmt.Errorf("initial puzzle %q is not a hunt puzzle", id)
		}
	}
	for _, r := range c.Releases {
		if !known[r.PuzzleID] {
			return fmt.Errorf("release of unknown puzzle %q", r.PuzzleID)
		}
		if r.After < 0 {
			return fmt.Errorf("release of %q has negative offset", r.PuzzleID)
		}
	}
	return nil
}

// Hunt is the linear hunt definition.
type Hunt struct {
	cfg Config
}

// New creates a linear hunt from a validated configuration.
func New(cfg Config) (*Hunt, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("linear hunt: %w", err)
	}
	return &Hunt{cfg: cfg}, nil
}

func (h *Hunt) Name() string { return Name }

func (h *Hunt) Puzzles() []string {
	out := make([]string, len(h.cfg.Puzzles))
	copy(out, h.cfg.Puzzles)
	return out
}

func (h *Hunt) StatusSet() model.VisibilityStatusSet {
	return model.StandardStatusSet{}
}

// Successors maps each puzzle to the one after it.
func (h *Hunt) Successors() map[string][]string {
	next := make(map[string][]string, len(h.cfg.Puzzles))
	for i := 0; i+1 < len(h.cfg.Puzzles); i++ {
		next[h.cfg.Puzzles[i]] = []string{h.cfg.Puzzles[i+1]}
	}
	return next
}

// Register attaches the linear unlock rules. Order matters: a correct
// submission marks its puzzle SOLVED, and the resulting VisibilityChanged
// opens the successor.
func (h *Hunt) Register(p *engine.Processor, hs *store.HuntStatusStore) {
	p.Register("unlock-initial", rules.UnlockOnHuntStart(hs, h.cfg.Initial...), model.KindHuntStart)
	p.Register("solve-on-correct", rules.SolveOnCorrectSubmission(hs), model.KindSubmissionStatusChanged)
	p.Register("unlock-successors", rules.UnlockSuccessors(hs, h.Successors()), model.KindVisibilityChanged)
	p.Register("full-release", rules.FullRelease(hs), model.KindFullRelease)
	if len(h.cfg.Releases) > 0 {
		p.Register("timed-release", rules.TimedRelease(hs, h.cfg.Releases), model.KindPeriodicTimer)
	}
}
