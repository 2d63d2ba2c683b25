// Package hunt connects a hunt definition to the engine and exposes the
// operations the request layer and the CLI use.
package hunt

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/cube/internal/engine"
	"github.com/roach88/cube/internal/hunt/rules"
	"github.com/roach88/cube/internal/model"
	"github.com/roach88/cube/internal/store"
)

// Definition is one hunt variant: its puzzles, its visibility policy, and the
// unlock handlers that connect the submission and visibility lifecycles.
type Definition interface {
	// Name is the variant tag the definition is registered under.
	Name() string

	// Puzzles lists the hunt's puzzle ids in display order.
	Puzzles() []string

	// StatusSet is the visibility policy for the hunt.
	StatusSet() model.VisibilityStatusSet

	// Register attaches the hunt's handlers to p. Handlers close over hs.
	Register(p *engine.Processor, hs *store.HuntStatusStore)
}

// Wire registers the handlers every hunt shares, then the definition's own.
func Wire(p *engine.Processor, hs *store.HuntStatusStore, def Definition, now func() time.Time) {
	p.Register("record-run-start", rules.RecordRunStart(hs, now), model.KindHuntStart)
	def.Register(p, hs)
}

// Install writes the definition's puzzle rows. It is idempotent.
func Install(ctx context.Context, hs *store.HuntStatusStore, def Definition) error {
	if err := hs.AddPuzzles(ctx, def.Puzzles()); err != nil {
		return fmt.Errorf("install hunt %s: %w", def.Name(), err)
	}
	return nil
}
