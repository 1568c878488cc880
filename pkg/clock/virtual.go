package clock

import (
	"sync"
	"time"
)

// VirtualClock is a controllable Clock for deterministic tests. Time only
// moves when Advance or Set is called, so limiter behavior over hours can be
// verified in microseconds without sleeping.
//
// Safe for concurrent use.
type VirtualClock struct {
	mu      sync.RWMutex
	now     time.Time
	pending []pendingTimer
}

type pendingTimer struct {
	fireAt time.Time
	ch     chan time.Time
}

// NewVirtualClock returns a VirtualClock frozen at start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Since returns the virtual duration elapsed since t.
func (c *VirtualClock) Since(t time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now.Sub(t)
}

// After returns a channel that receives the virtual time once the clock has
// been advanced past now+d. A non-positive d fires immediately.
func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.pending = append(c.pending, pendingTimer{fireAt: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves the clock forward by d and fires any timers that come due.
// Panics if d is negative.
func (c *VirtualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	c.fireDue()
}

// Set jumps the clock to t and fires any timers that come due.
// Panics if t is before the current virtual time.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.now) {
		panic("clock: cannot set time to the past")
	}
	c.now = t
	c.fireDue()
}

// fireDue delivers every pending timer whose deadline has passed.
// Callers must hold c.mu.
func (c *VirtualClock) fireDue() {
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p.fireAt.After(c.now) {
			kept = append(kept, p)
			continue
		}
		p.ch <- c.now
	}
	c.pending = kept
}
