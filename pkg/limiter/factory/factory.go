// Package factory builds limiters from declarative configuration. It is the
// one place that knows about every algorithm, so callers that read a Config
// from a file or flags do not import the bucket and window packages directly.
package factory

import (
	"fmt"
	"time"

	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
	"github.com/limitr/limitr/pkg/limiter/bucket"
	"github.com/limitr/limitr/pkg/limiter/window"
)

// FromConfig constructs the limiter described by cfg. For the bucket
// algorithms the configured rate and window are folded into a per-second
// rate, and burst sets the capacity (falling back to rate when unset).
func FromConfig(cfg limiter.Config, c clock.Clock) (limiter.Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	capacity := cfg.Burst
	if capacity == 0 {
		capacity = cfg.Rate
	}
	perSecond := float64(cfg.Rate) / cfg.Window.Seconds()

	switch cfg.Algorithm {
	case limiter.AlgorithmTokenBucket:
		return bucket.NewTokenBucket(capacity, perSecond, c)
	case limiter.AlgorithmLeakyBucket:
		return bucket.NewLeakyBucket(capacity, perSecond, c)
	case limiter.AlgorithmSlidingWindow:
		return window.NewSlidingWindowCounter(cfg.Rate, cfg.Window, c)
	case limiter.AlgorithmFixedWindow:
		return window.NewFixedWindowCounter(cfg.Rate, cfg.Window, c)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", cfg.Algorithm)
	}
}

// PoolFromConfig constructs a per-key pool whose limiters follow cfg. Each
// key gets an independent limiter built on first use.
func PoolFromConfig(cfg limiter.Config, idleTTL time.Duration, c clock.Clock) (*limiter.Keyed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return limiter.NewKeyed(func() limiter.Limiter {
		lim, err := FromConfig(cfg, c)
		if err != nil {
			// Validate above already rejected bad configs.
			panic(fmt.Sprintf("building limiter from validated config: %v", err))
		}
		return lim
	}, idleTTL, c)
}
