package engine

import (
	"context"
	"sync"
)

// job is one unit of work for the Run loop: a mutation whose events are
// dispatched as a single cascade.
type job struct {
	ctx  context.Context
	fn   Mutation
	done chan result // buffered, size 1; nil for fire-and-forget jobs
}

type result struct {
	cascade Cascade
	err     error
}

// jobQueue is an unbounded, thread-safe FIFO of jobs.
//
// Producers (HTTP handlers, the timer, CLI commands) enqueue from any
// goroutine; only the Run loop dequeues. A buffered signal channel lets the
// loop wait for work and for context cancellation in the same select.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]job, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a job to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front job without blocking.
func (q *jobQueue) TryDequeue() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return job{}, false
	}
	j := q.jobs[0]
	q.jobs[0] = job{} // release references held by the backing array
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return j, true
}

// Wait returns a channel that fires when jobs may be available. It is
// closed once the queue is closed.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Closed reports whether Close has been called.
func (q *jobQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting jobs and wakes the Run loop.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Drain closes the queue and removes every pending job.
func (q *jobQueue) Drain() []job {
	q.Close()

	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.jobs
	q.jobs = nil
	return pending
}
