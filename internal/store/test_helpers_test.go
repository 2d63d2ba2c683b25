package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC)

// steppingClock returns testEpoch, then advances one second per call.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		c.now = testEpoch
		return c.now
	}
	c.now = c.now.Add(time.Second)
	return c.now
}

// createTestStore creates a new file-backed store for testing with a
// deterministic clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := &steppingClock{}
	s, err := Open(path, WithNow(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
