package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
)

// FixedWindowCounter implements the fixed window counter algorithm.
//
// Time is divided into intervals anchored at the construction-time clock
// reading. Each interval has a single counter that resets when the window
// rolls over. Cheap (O(1) state) but coarse: up to 2x the threshold can be
// admitted across a window boundary. That is inherent to the algorithm and
// is what distinguishes it from SlidingWindowCounter.
type FixedWindowCounter struct {
	clock     clock.Clock
	threshold int
	interval  time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int
}

// NewFixedWindowCounter creates a limiter admitting up to threshold requests
// per interval. Windows are aligned to the construction time. Construction
// fails on non-positive threshold or interval and on a nil clock.
func NewFixedWindowCounter(threshold int, interval time.Duration, c clock.Clock) (*FixedWindowCounter, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %d", threshold)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	if c == nil {
		return nil, fmt.Errorf("clock is required")
	}
	return &FixedWindowCounter{
		clock:       c,
		threshold:   threshold,
		interval:    interval,
		windowStart: c.Now(),
	}, nil
}

// Allow checks whether one request may proceed at the clock's current time.
func (fw *FixedWindowCounter) Allow(_ context.Context) limiter.Decision {
	return fw.AllowAt(fw.clock.Now())
}

// AllowAt checks whether one request may proceed at the caller-supplied time
// t. Supplied times must be non-decreasing per instance; a t behind the
// current window leaves the window and count unchanged and is judged against
// them as-is. AllowAt exists so embedding code and tests can drive the
// counter deterministically.
func (fw *FixedWindowCounter) AllowAt(t time.Time) limiter.Decision {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	// Roll the window forward one interval at a time until it contains t, so
	// a long idle gap lands exactly on the aligned window covering t.
	for !t.Before(fw.windowStart.Add(fw.interval)) {
		fw.windowStart = fw.windowStart.Add(fw.interval)
		fw.count = 0
	}

	resetAt := fw.windowStart.Add(fw.interval)

	if fw.count < fw.threshold {
		fw.count++
		return limiter.Decision{
			Allowed:   true,
			Remaining: fw.threshold - fw.count,
			Limit:     fw.threshold,
			ResetAt:   resetAt,
		}
	}

	// Rejected requests are not counted.
	return limiter.Decision{
		Allowed:   false,
		Remaining: 0,
		Limit:     fw.threshold,
		ResetAt:   resetAt,
		RetryAt:   resetAt,
	}
}
