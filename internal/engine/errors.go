package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/cube/internal/model"
)

// ErrStopped is returned for work submitted to, or still pending in, an
// Engine that has stopped.
var ErrStopped = errors.New("engine stopped")

// DefaultMaxSteps bounds the number of events a single cascade may dispatch.
const DefaultMaxSteps = 1000

// HandlerError reports a handler failure. It stops the cascade it occurred
// in; earlier effects of the cascade are not rolled back.
type HandlerError struct {
	Cascade string
	Handler string
	Kind    model.EventKind
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("cascade %s: handler %s on %s: %v", e.Cascade, e.Handler, e.Kind, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// StepsExceededError is returned when a cascade dispatches more events than
// the processor's step quota allows.
type StepsExceededError struct {
	Cascade string
	Steps   int
	Limit   int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("cascade %s exceeded max steps quota: %d steps > %d limit",
		e.Cascade, e.Steps, e.Limit)
}

// IsStepsExceededError reports whether err wraps a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}

// IsHandlerError reports whether err wraps a HandlerError.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// quota counts dispatched events for one cascade.
type quota struct {
	cascade  string
	maxSteps int
	current  int
}

func newQuota(cascade string, maxSteps int) *quota {
	return &quota{cascade: cascade, maxSteps: maxSteps}
}

// Check records one step and fails once the limit is passed.
// A non-positive limit disables the quota.
func (q *quota) Check() error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{Cascade: q.cascade, Steps: q.current, Limit: q.maxSteps}
	}
	return nil
}
