// Package bucket provides the bucket family of rate limiters: TokenBucket
// for burst-tolerant limiting and LeakyBucket for traffic smoothing. Both
// keep a continuous, clock-derived accumulator guarded by a mutex, so a
// single instance can be shared by any number of concurrent callers.
package bucket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
)

// TokenBucket implements the token bucket rate limiting algorithm.
//
// Tokens accumulate at refillRate per second up to capacity; each admitted
// request removes its cost. The bucket starts full, so bursts up to capacity
// are admitted immediately while the long-term rate stays bounded.
//
// Token arithmetic is kept in a float64 accumulator so that sub-second calls
// never lose fractional refill to truncation.
type TokenBucket struct {
	clock      clock.Clock
	capacity   int
	refillRate float64 // tokens per second

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a full bucket holding capacity tokens that refills
// at refillRate tokens per second. Construction fails on non-positive
// capacity or rate and on a nil clock.
func NewTokenBucket(capacity int, refillRate float64, c clock.Clock) (*TokenBucket, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if refillRate <= 0 {
		return nil, fmt.Errorf("refill rate must be positive, got %g", refillRate)
	}
	if c == nil {
		return nil, fmt.Errorf("clock is required")
	}
	return &TokenBucket{
		clock:      c,
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: c.Now(),
	}, nil
}

// Allow checks whether one request may proceed now.
func (tb *TokenBucket) Allow(ctx context.Context) limiter.Decision {
	return tb.AllowN(ctx, 1)
}

// AllowN checks whether a request costing n tokens may proceed now.
// A negative n is always denied; n greater than capacity can never be
// satisfied and is denied deterministically. Refill is applied before the
// check either way, so a denied call still advances the bucket.
func (tb *TokenBucket) AllowN(_ context.Context, n int) limiter.Decision {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.refill()

	// When a token deficit exists, ResetAt is the moment the bucket is full again.
	resetAt := now
	if deficit := float64(tb.capacity) - tb.tokens; deficit > 0 {
		resetAt = now.Add(durationFor(deficit, tb.refillRate))
	}

	if n >= 0 && tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return limiter.Decision{
			Allowed:   true,
			Remaining: int(tb.tokens),
			Limit:     tb.capacity,
			ResetAt:   resetAt,
		}
	}

	d := limiter.Decision{
		Allowed:   false,
		Remaining: int(tb.tokens),
		Limit:     tb.capacity,
		ResetAt:   resetAt,
	}
	if n >= 0 && n <= tb.capacity {
		d.RetryAt = now.Add(durationFor(float64(n)-tb.tokens, tb.refillRate))
	}
	return d
}

// Tokens returns the current token balance after applying any pending refill.
func (tb *TokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

// refill credits tokens for the time elapsed since the last refill and
// advances the refill timestamp. Callers must hold tb.mu. Returns now.
func (tb *TokenBucket) refill() time.Time {
	now := tb.clock.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		// Clock did not move (or moved backward): credit nothing and keep
		// the existing refill mark so a later recovery is not double-counted.
		return now
	}
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}
	tb.lastRefill = now
	return now
}

// durationFor converts a token amount at rate tokens/second into a duration.
func durationFor(amount, rate float64) time.Duration {
	return time.Duration(amount / rate * float64(time.Second))
}
