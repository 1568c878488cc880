// Package window provides the window family of rate limiters:
// SlidingWindowCounter for exact counting over a trailing interval and
// FixedWindowCounter for cheap counting inside aligned intervals.
package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
)

// SlidingWindowCounter implements the sliding window log algorithm.
//
// It stores the timestamp of every admitted request and counts how many fall
// inside the trailing window. That gives exact limiting with no boundary
// double-admits, at the cost of O(threshold) state per instance.
type SlidingWindowCounter struct {
	clock     clock.Clock
	threshold int
	window    time.Duration

	mu     sync.Mutex
	stamps []time.Time
}

// NewSlidingWindowCounter creates a limiter admitting up to threshold
// requests per trailing window. Construction fails on non-positive
// threshold or window and on a nil clock.
func NewSlidingWindowCounter(threshold int, window time.Duration, c clock.Clock) (*SlidingWindowCounter, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %d", threshold)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	if c == nil {
		return nil, fmt.Errorf("clock is required")
	}
	return &SlidingWindowCounter{
		clock:     c,
		threshold: threshold,
		window:    window,
		stamps:    make([]time.Time, 0, threshold),
	}, nil
}

// Allow checks whether one request may proceed now. Timestamps older than
// now-window are pruned first; on admit the current time is appended, so the
// log never holds more than threshold live entries.
func (sw *SlidingWindowCounter) Allow(_ context.Context) limiter.Decision {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.clock.Now()
	cutoff := now.Add(-sw.window)

	// Prune in place; entries are appended in time order, so everything at or
	// before the cutoff sits at the front.
	kept := sw.stamps[:0]
	for _, ts := range sw.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	sw.stamps = kept

	count := len(sw.stamps)

	// The window "resets" when the oldest live entry falls off.
	resetAt := now.Add(sw.window)
	if count > 0 {
		resetAt = sw.stamps[0].Add(sw.window)
	}

	if count < sw.threshold {
		sw.stamps = append(sw.stamps, now)
		return limiter.Decision{
			Allowed:   true,
			Remaining: sw.threshold - count - 1,
			Limit:     sw.threshold,
			ResetAt:   resetAt,
		}
	}

	return limiter.Decision{
		Allowed:   false,
		Remaining: 0,
		Limit:     sw.threshold,
		ResetAt:   resetAt,
		RetryAt:   sw.stamps[0].Add(sw.window),
	}
}

// Len returns the number of stored timestamps, including any not yet pruned.
func (sw *SlidingWindowCounter) Len() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return len(sw.stamps)
}
