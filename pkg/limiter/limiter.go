// Package limiter defines the shared admission capability implemented by the
// rate limiting algorithms in the bucket and window subpackages.
//
// Each algorithm is an independent type; there is no shared state and no
// hierarchy. Callers that want to be generic over "some rate limiter" depend
// on the Limiter interface only. Applications that need a single family link
// only the subpackage they import: bucket (TokenBucket, LeakyBucket) or
// window (SlidingWindowCounter, FixedWindowCounter).
package limiter

import (
	"context"
	"fmt"
	"time"
)

// Algorithm identifies a rate limiting algorithm.
type Algorithm string

const (
	AlgorithmTokenBucket   Algorithm = "token_bucket"
	AlgorithmLeakyBucket   Algorithm = "leaky_bucket"
	AlgorithmSlidingWindow Algorithm = "sliding_window"
	AlgorithmFixedWindow   Algorithm = "fixed_window"
)

// Limiter is the narrow admission interface shared by all algorithms.
// A limiter never waits for time to pass; Allow inspects the clock and
// returns an instantaneous admit/reject decision.
type Limiter interface {
	// Allow decides whether one request may proceed now.
	Allow(ctx context.Context) Decision
}

// Decision is the result of a single admission check. Allowed carries the
// admit/reject answer; the remaining fields are hints for callers that set
// rate-limit response headers or schedule retries.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"` // whole units left after this check
	Limit     int       `json:"limit"`     // configured capacity or threshold
	ResetAt   time.Time `json:"reset_at"`  // when the bucket/window fully resets
	RetryAt   time.Time `json:"retry_at"`  // earliest time a retry can succeed (if denied)
}

// Config holds the parameters for building a limiter from configuration.
// Rate and Window express the sustained rate (Rate requests per Window);
// Burst is the capacity for the bucket algorithms (0 means Burst = Rate).
type Config struct {
	Algorithm Algorithm     `json:"algorithm"`
	Rate      int           `json:"rate"`
	Window    time.Duration `json:"window"`
	Burst     int           `json:"burst"`
}

// Validate reports the first problem with the config, or nil.
func (c Config) Validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", c.Rate)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	if c.Burst < 0 {
		return fmt.Errorf("burst must not be negative, got %d", c.Burst)
	}
	switch c.Algorithm {
	case AlgorithmTokenBucket, AlgorithmLeakyBucket, AlgorithmSlidingWindow, AlgorithmFixedWindow:
		return nil
	default:
		return fmt.Errorf("unknown algorithm %q, must be one of: token_bucket, leaky_bucket, sliding_window, fixed_window", c.Algorithm)
	}
}
