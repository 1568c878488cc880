package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/limitr/limitr/pkg/clock"
)

// Keyed fans a single-limiter policy out to many caller identities. Each key
// lazily gets its own Limiter from the factory; separate keys never share
// state. Entries idle longer than the TTL are dropped by Cleanup, keeping
// memory bounded for high-cardinality keys.
type Keyed struct {
	factory func() Limiter
	clock   clock.Clock
	idleTTL time.Duration

	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	limiter  Limiter
	lastSeen time.Time
}

// NewKeyed creates a per-key admission pool. The factory must return a fresh,
// fully constructed Limiter; configuration errors belong to the caller that
// builds the factory. idleTTL of 0 disables eviction.
func NewKeyed(factory func() Limiter, idleTTL time.Duration, c clock.Clock) (*Keyed, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory is required")
	}
	if c == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if idleTTL < 0 {
		return nil, fmt.Errorf("idle TTL must not be negative, got %s", idleTTL)
	}
	return &Keyed{
		factory: factory,
		clock:   c,
		idleTTL: idleTTL,
		entries: make(map[string]*keyedEntry),
	}, nil
}

// Allow runs the admission check for key, creating its limiter on first use.
func (k *Keyed) Allow(ctx context.Context, key string) Decision {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{limiter: k.factory()}
		k.entries[key] = e
	}
	e.lastSeen = k.clock.Now()
	k.mu.Unlock()

	// The per-key limiter serializes its own state; holding the pool lock
	// across the check would turn every key into one contention point.
	return e.limiter.Allow(ctx)
}

// Cleanup drops entries that have been idle longer than the TTL and reports
// how many were removed. Call periodically in long-running processes.
func (k *Keyed) Cleanup() int {
	if k.idleTTL == 0 {
		return 0
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.clock.Now().Add(-k.idleTTL)
	removed := 0
	for key, e := range k.entries {
		if e.lastSeen.Before(cutoff) {
			delete(k.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live keys, including any not yet cleaned up.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
