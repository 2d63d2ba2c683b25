package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/cube/internal/model"
)

// Mutation performs one state change and returns the events it produced.
// It runs on the Engine's loop goroutine.
type Mutation func(ctx context.Context) ([]model.Event, error)

// Engine is the single-writer loop that runs every state-changing operation
// together with its cascade.
//
// Thread-safety model:
//   - Do, Process, Submit and Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//
// While a cascade is in progress no other job starts, so readers that go
// through Do observe either none or all of a cascade's effects.
type Engine struct {
	proc    *Processor
	queue   *jobQueue
	flowGen FlowTokenGenerator
}

// New creates an Engine dispatching through proc. flowGen stamps each
// cascade with a correlation token.
func New(proc *Processor, flowGen FlowTokenGenerator) *Engine {
	return &Engine{
		proc:    proc,
		queue:   newJobQueue(),
		flowGen: flowGen,
	}
}

// Do runs fn on the loop and dispatches its events, blocking until the
// whole cascade has drained.
//
// ctx bounds only the wait: once queued, the job runs to completion with
// cancellation removed. If ctx ends first, Do returns ctx.Err() and the
// outcome of the job is unknown to the caller.
func (e *Engine) Do(ctx context.Context, fn Mutation) (Cascade, error) {
	done := make(chan result, 1)
	if !e.queue.Enqueue(job{ctx: ctx, fn: fn, done: done}) {
		return Cascade{}, ErrStopped
	}

	select {
	case res := <-done:
		return res.cascade, res.err
	case <-ctx.Done():
		return Cascade{}, ctx.Err()
	}
}

// Process dispatches an externally supplied event as a cascade of its own
// and blocks until it has drained.
func (e *Engine) Process(ctx context.Context, ev model.Event) (Cascade, error) {
	return e.Do(ctx, func(context.Context) ([]model.Event, error) {
		return []model.Event{ev}, nil
	})
}

// Submit queues ev for dispatch without waiting. Failures are logged by the
// loop. Returns false if the engine has stopped.
func (e *Engine) Submit(ctx context.Context, ev model.Event) bool {
	return e.queue.Enqueue(job{
		ctx: ctx,
		fn: func(context.Context) ([]model.Event, error) {
			return []model.Event{ev}, nil
		},
	})
}

// Run executes queued jobs until ctx is cancelled or Stop is called.
// After Stop, jobs already queued are still executed; after cancellation
// they fail with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")

	for {
		if ctx.Err() != nil {
			return e.shutdown(ctx)
		}

		if j, ok := e.queue.TryDequeue(); ok {
			e.execute(j)
			continue
		}

		select {
		case <-ctx.Done():
			return e.shutdown(ctx)

		case <-e.queue.Wait():
			// The signal channel is closed with the queue, so this case
			// fires immediately once Stop has been called.
			if e.queue.Len() == 0 && e.queue.Closed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// shutdown fails every job still queued after cancellation.
func (e *Engine) shutdown(ctx context.Context) error {
	slog.Info("engine stopping: context cancelled")
	for _, j := range e.queue.Drain() {
		if j.done != nil {
			j.done <- result{err: ErrStopped}
		}
	}
	return ctx.Err()
}

// Stop closes the queue. Run returns after the jobs already queued finish.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) execute(j job) {
	ctx := context.WithoutCancel(j.ctx)
	token := e.flowGen.Generate()

	res := result{cascade: Cascade{Token: token}}
	events, err := j.fn(ctx)
	if err != nil {
		res.err = err
	} else if len(events) > 0 {
		res.cascade, res.err = e.proc.Dispatch(ctx, token, events...)
	}

	if res.err != nil {
		slog.Error("cascade failed",
			"cascade", token,
			"steps", len(res.cascade.Steps),
			"error", res.err,
		)
	} else if len(res.cascade.Steps) > 0 {
		slog.Debug("cascade completed",
			"cascade", token,
			"steps", len(res.cascade.Steps),
		)
	}

	if j.done != nil {
		j.done <- res
	}
}
