package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time of a DeterministicClock.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe fake wall clock for tests.
//
// Each call to Now returns the previous time plus step, so records created in
// sequence get strictly increasing timestamps and "newest first" orderings are
// reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	now   time.Time
}

// NewDeterministicClock creates a clock at Epoch that advances one second per
// call to Now.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(Epoch, time.Second)
}

// NewDeterministicClockAt creates a clock at start that advances step per call
// to Now. A zero step freezes the clock.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{start: start, step: step, now: start}
}

// Now advances the clock by one step and returns the new time.
// The first call returns start + step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Current returns the current time without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d, e.g. past a session's expiry.
func (c *DeterministicClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset returns the clock to its start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
