package testutil

import (
	"sync"
	"time"
)

// Epoch is the wall time fake clocks start at.
var Epoch = time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC)

// WallClock is a fake wall clock for tests. Every call to Now returns the
// current time and then moves the clock forward by the configured step, so
// consecutive records get distinct, predictable timestamps.
//
// Safe for concurrent use.
type WallClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewWallClock creates a clock at Epoch advancing step per reading.
// A zero step gives a frozen clock.
func NewWallClock(step time.Duration) *WallClock {
	return &WallClock{now: Epoch, step: step}
}

// Now returns the current fake time and advances the clock.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Peek returns the current fake time without advancing.
func (c *WallClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *WallClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *WallClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
