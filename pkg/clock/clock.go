// Package clock abstracts time behind a small interface so that every
// time-derived limiter counter can run against either the system clock or a
// controllable virtual clock. Limiter code never calls time.Now directly.
package clock

import "time"

// Clock is the time source injected into every limiter.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration
	// After returns a channel that receives the current time once d has passed.
	After(d time.Duration) <-chan time.Time
}

// SystemClock reads the host clock via the standard time package.
type SystemClock struct{}

// NewSystemClock returns a Clock backed by the time package.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	return time.Now()
}

func (c *SystemClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
