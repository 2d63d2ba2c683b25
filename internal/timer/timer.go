// Package timer ticks PeriodicTimer events into the engine.
package timer

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/cube/internal/model"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 10 * time.Second

// Submitter queues an event without waiting for its cascade.
// *engine.Engine satisfies it.
type Submitter interface {
	Submit(ctx context.Context, ev model.Event) bool
}

// Source emits one PeriodicTimer event per interval. Ticks are queued behind
// whatever the engine is already doing; they never run concurrently with
// another cascade.
type Source struct {
	target   Submitter
	interval time.Duration
	now      func() time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithNow overrides the wall clock stamped on each tick.
func WithNow(now func() time.Time) Option {
	return func(s *Source) {
		s.now = now
	}
}

// New creates a Source submitting to target.
func New(target Submitter, opts ...Option) *Source {
	s := &Source{
		target:   target,
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled or the target stops accepting events.
func (s *Source) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("timer starting", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("timer stopping")
			return nil
		case <-ticker.C:
			firedAt := s.now().UTC()
			if !s.target.Submit(ctx, model.PeriodicTimer{FiredAt: firedAt}) {
				slog.Info("timer stopping: engine stopped")
				return nil
			}
			slog.Debug("timer tick", "fired_at", firedAt)
		}
	}
}
