package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/cube/internal/model"
)

// Handler reacts to one event. It may mutate state through the stores and
// returns the events those mutations produced, which the Processor dispatches
// after every event already pending.
type Handler interface {
	Handle(ctx context.Context, ev model.Event) ([]model.Event, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev model.Event) ([]model.Event, error)

// Handle calls f(ctx, ev).
func (f HandlerFunc) Handle(ctx context.Context, ev model.Event) ([]model.Event, error) {
	return f(ctx, ev)
}

type registration struct {
	name    string
	handler Handler
}

// Step is one dispatched event of a cascade.
type Step struct {
	Seq   int64
	Event model.Event
}

// Cascade is the record of one drained cascade.
type Cascade struct {
	Token string
	Steps []Step
}

// Processor routes events to handlers registered by event kind.
//
// Handlers for a kind run in registration order. Registration must finish
// before the first Dispatch; the Processor is not safe for concurrent
// registration and dispatch.
type Processor struct {
	handlers map[model.EventKind][]registration
	clock    *Clock
	maxSteps int
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithMaxSteps sets the per-cascade step quota. Zero or less disables it.
func WithMaxSteps(maxSteps int) ProcessorOption {
	return func(p *Processor) {
		p.maxSteps = maxSteps
	}
}

// WithClock sets the logical clock used to stamp dispatched events.
func WithClock(c *Clock) ProcessorOption {
	return func(p *Processor) {
		p.clock = c
	}
}

// NewProcessor creates a Processor with no handlers.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		handlers: make(map[model.EventKind][]registration),
		clock:    NewClock(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register subscribes h to the given event kinds under name. The name is
// used in logs and errors.
func (p *Processor) Register(name string, h Handler, kinds ...model.EventKind) {
	for _, kind := range kinds {
		p.handlers[kind] = append(p.handlers[kind], registration{name: name, handler: h})
	}
}

// Handlers returns the names of the handlers subscribed to kind, in
// dispatch order.
func (p *Processor) Handlers(kind model.EventKind) []string {
	regs := p.handlers[kind]
	names := make([]string, len(regs))
	for i, reg := range regs {
		names[i] = reg.name
	}
	return names
}

// Dispatch delivers seed and every follow-up event to the registered
// handlers, breadth-first, and returns once nothing is pending.
//
// The first handler error stops the cascade. The returned Cascade lists the
// steps dispatched up to and including the failing one.
func (p *Processor) Dispatch(ctx context.Context, token string, seed ...model.Event) (Cascade, error) {
	cascade := Cascade{Token: token}
	q := newQuota(token, p.maxSteps)

	pending := append([]model.Event(nil), seed...)
	for len(pending) > 0 {
		ev := pending[0]
		pending = pending[1:]

		if err := q.Check(); err != nil {
			slog.Error("cascade step quota exceeded",
				"cascade", token,
				"limit", p.maxSteps,
				"kind", ev.Kind(),
			)
			return cascade, err
		}

		step := Step{Seq: p.clock.Next(), Event: ev}
		cascade.Steps = append(cascade.Steps, step)
		slog.Debug("dispatching event",
			"cascade", token,
			"seq", step.Seq,
			"kind", ev.Kind(),
		)

		for _, reg := range p.handlers[ev.Kind()] {
			followUps, err := reg.handler.Handle(ctx, ev)
			if err != nil {
				return cascade, &HandlerError{
					Cascade: token,
					Handler: reg.name,
					Kind:    ev.Kind(),
					Err:     err,
				}
			}
			pending = append(pending, followUps...)
		}
	}
	return cascade, nil
}
