package linear

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/cube/internal/hunt/rules"
)

//go:embed schema.cue
var schemaSource []byte

// huntFile mirrors #Hunt in schema.cue.
type huntFile struct {
	Puzzles  []string      `json:"puzzles"`
	Initial  []string      `json:"initial"`
	Releases []releaseFile `json:"releases"`
}

type releaseFile struct {
	Puzzle string `json:"puzzle"`
	After  string `json:"after"`
}

// LoadConfig reads a CUE hunt file, checks it against the hunt schema and
// validates the result:
//
//	puzzles: ["puzzle1", "puzzle2", "puzzle3"]
//	initial: ["puzzle1"]
//	releases: [{puzzle: "puzzle3", after: "2h"}]
//
// Unknown keys, empty ids and malformed durations are schema errors and
// carry the file position.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read hunt file: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile hunt schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, fmt.Errorf("parse hunt file: %s", cueerrors.Details(err, nil))
	}

	v = schema.LookupPath(cue.ParsePath("#Hunt")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("hunt file does not match schema: %s", cueerrors.Details(err, nil))
	}

	var raw huntFile
	if err := v.Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("decode hunt file %s: %w", path, err)
	}

	cfg := Config{Puzzles: raw.Puzzles, Initial: raw.Initial}
	for _, r := range raw.Releases {
		after, err := time.ParseDuration(r.After)
		if err != nil {
			return Config{}, fmt.Errorf("hunt file %s: release of %q: %w", path, r.Puzzle, err)
		}
		cfg.Releases = append(cfg.Releases, rules.Release{PuzzleID: r.Puzzle, After: after})
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("hunt file %s: %w", path, err)
	}
	return cfg, nil
}
