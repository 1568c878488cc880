package bucket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
)

// LeakyBucket implements the leaky bucket rate limiting algorithm.
//
// It is the dual of TokenBucket: each admitted request raises the fill level,
// and the level drains at leakRate per second. A request is admitted only
// when it fits under capacity, so bursts are flattened into a steady outflow
// instead of being served from a stored balance.
type LeakyBucket struct {
	clock    clock.Clock
	capacity int
	leakRate float64 // units drained per second

	mu       sync.Mutex
	level    float64
	lastLeak time.Time
}

// NewLeakyBucket creates an empty bucket with the given capacity that drains
// at leakRate units per second. Construction fails on non-positive capacity
// or rate and on a nil clock.
func NewLeakyBucket(capacity int, leakRate float64, c clock.Clock) (*LeakyBucket, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if leakRate <= 0 {
		return nil, fmt.Errorf("leak rate must be positive, got %g", leakRate)
	}
	if c == nil {
		return nil, fmt.Errorf("clock is required")
	}
	return &LeakyBucket{
		clock:    c,
		capacity: capacity,
		leakRate: leakRate,
		lastLeak: c.Now(),
	}, nil
}

// Allow checks whether one unit-cost request may proceed now.
func (lb *LeakyBucket) Allow(ctx context.Context) limiter.Decision {
	return lb.AllowN(ctx, 1)
}

// AllowN checks whether a request costing n units may proceed now. The leak
// is applied first, so a denied call still drains the bucket. A negative n
// is always denied; n greater than capacity can never fit and is denied
// deterministically.
func (lb *LeakyBucket) AllowN(_ context.Context, n int) limiter.Decision {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := lb.leak()

	// ResetAt is the moment the bucket has fully drained.
	resetAt := now
	if lb.level > 0 {
		resetAt = now.Add(durationFor(lb.level, lb.leakRate))
	}

	if n >= 0 && lb.level+float64(n) <= float64(lb.capacity) {
		lb.level += float64(n)
		return limiter.Decision{
			Allowed:   true,
			Remaining: int(float64(lb.capacity) - lb.level),
			Limit:     lb.capacity,
			ResetAt:   now.Add(durationFor(lb.level, lb.leakRate)),
		}
	}

	d := limiter.Decision{
		Allowed:   false,
		Remaining: int(float64(lb.capacity) - lb.level),
		Limit:     lb.capacity,
		ResetAt:   resetAt,
	}
	if n >= 0 && n <= lb.capacity {
		// Retry once enough has drained for n units of headroom.
		overflow := lb.level + float64(n) - float64(lb.capacity)
		d.RetryAt = now.Add(durationFor(overflow, lb.leakRate))
	}
	return d
}

// Level returns the current fill level after applying any pending leak.
func (lb *LeakyBucket) Level() float64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.leak()
	return lb.level
}

// leak drains the level for the time elapsed since the last leak and
// advances the leak timestamp. Callers must hold lb.mu. Returns now.
func (lb *LeakyBucket) leak() time.Time {
	now := lb.clock.Now()
	elapsed := now.Sub(lb.lastLeak).Seconds()
	if elapsed <= 0 {
		return now
	}
	lb.level -= elapsed * lb.leakRate
	if lb.level < 0 {
		lb.level = 0
	}
	lb.lastLeak = now
	return now
}
