// Package testutil holds deterministic time sources for tests.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the wall-clock time tests pin package creation to.
var Epoch = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

// FixedNow returns a clock function that always reports t. It plugs into
// cartridge.Options.Now so manifests carry a stable creation date.
func FixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// DeterministicClock is a logical step counter for scenario traces.
//
// The first call to Next returns 1. Reset makes a clock reusable so the
// same scenario run twice produces identical sequence numbers.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock starting at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset sets the clock back to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
