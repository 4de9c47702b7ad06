package testkit

import (
	"sync"
	"testing"
	"time"
)

var seamMu sync.Mutex

// Swap replaces a package level variable for the duration of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial holds a global lock for the rest of the test so tests that swap
// shared seams (the root logger, env) never overlap
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(seamMu.Unlock)
}

// Clock is a settable clock for services that take a Now func. Safe for use
// from concurrent handlers
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at start
func NewClock(start time.Time) *Clock { return &Clock{now: start} }

// Now returns the current reading
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new reading
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
