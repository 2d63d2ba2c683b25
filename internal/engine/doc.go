// Package engine serializes hunt state changes and dispatches the events
// they produce.
//
// ARCHITECTURE:
//
// Single-Writer Loop:
// Every state-changing operation, whether it comes from an HTTP request, the
// periodic timer or an administrator command, is submitted to the Engine as a
// job. Run executes jobs one at a time on a single goroutine, so a cascade
// started by one operation is never interleaved with another operation.
//
// Cascades:
// A job performs one store mutation and returns the events that mutation
// produced. The Processor then delivers those events to every registered
// handler in registration order. Handler follow-up events are queued behind
// the events already pending, so delivery is breadth-first. The caller of Do
// or Process sees the result only after the whole cascade has drained.
//
// Each cascade is stamped with a token from a FlowTokenGenerator, and every
// dispatched event gets a sequence number from the logical Clock. Both appear
// in the structured log and in the returned Cascade.
//
// Failure Model:
// Each store mutation is atomic on its own. A handler error stops the
// cascade and is returned to the caller; mutations already applied by
// earlier handlers are kept. A cascade that dispatches more than the step
// quota is stopped with StepsExceededError.
package engine
