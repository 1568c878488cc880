package window

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
)

var (
	epoch = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx   = context.Background()
)

func newSliding(t *testing.T, threshold int, window time.Duration, c clock.Clock) *SlidingWindowCounter {
	t.Helper()
	sw, err := NewSlidingWindowCounter(threshold, window, c)
	if err != nil {
		t.Fatalf("NewSlidingWindowCounter: %v", err)
	}
	return sw
}

func TestSlidingWindow_AdmitsExactlyThreshold(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	sw := newSliding(t, 5, 10*time.Second, vc)

	for i := 0; i < 5; i++ {
		if d := sw.Allow(ctx); !d.Allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	d := sw.Allow(ctx)
	if d.Allowed {
		t.Error("6th rapid request should be denied")
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}
}

func TestSlidingWindow_OldEntriesExpire(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	sw := newSliding(t, 3, 10*time.Second, vc)

	for i := 0; i < 3; i++ {
		sw.Allow(ctx)
	}
	if d := sw.Allow(ctx); d.Allowed {
		t.Fatal("should be denied at threshold")
	}

	// Push the admitted timestamps out of the trailing window.
	vc.Advance(11 * time.Second)
	if d := sw.Allow(ctx); !d.Allowed {
		t.Error("should be allowed once old timestamps left the window")
	}
}

func TestSlidingWindow_NoBoundaryDoubleAdmit(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	sw := newSliding(t, 4, 10*time.Second, vc)

	// Two admits late in the first 10s span.
	vc.Advance(9 * time.Second)
	sw.Allow(ctx)
	sw.Allow(ctx)

	// Just past the fixed-window boundary the trailing window still covers
	// them, so only two more may pass. A fixed window would allow four here.
	vc.Advance(2 * time.Second)
	allowed := 0
	for i := 0; i < 4; i++ {
		if sw.Allow(ctx).Allowed {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed %d requests across the boundary, want 2", allowed)
	}
}

func TestSlidingWindow_GradualExpiry(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	sw := newSliding(t, 2, 10*time.Second, vc)

	sw.Allow(ctx) // t=0
	vc.Advance(5 * time.Second)
	sw.Allow(ctx) // t=5
	if d := sw.Allow(ctx); d.Allowed {
		t.Fatal("should be denied with both stamps live")
	}

	// t=11: the t=0 stamp has expired, the t=5 one has not.
	vc.Advance(6 * time.Second)
	if d := sw.Allow(ctx); !d.Allowed {
		t.Error("should be allowed after the oldest stamp expired")
	}
	if d := sw.Allow(ctx); d.Allowed {
		t.Error("should be denied again: two stamps live in the window")
	}
}

func TestSlidingWindow_LogBoundedByThreshold(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	sw := newSliding(t, 5, time.Minute, vc)

	for i := 0; i < 50; i++ {
		sw.Allow(ctx)
		vc.Advance(100 * time.Millisecond)
	}
	if got := sw.Len(); got > 5 {
		t.Errorf("stored %d timestamps, want at most threshold (5)", got)
	}
}

func TestSlidingWindow_RetryAtIsOldestExpiry(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	sw := newSliding(t, 1, 10*time.Second, vc)

	sw.Allow(ctx)
	d := sw.Allow(ctx)
	if d.Allowed {
		t.Fatal("should be denied")
	}

	want := epoch.Add(10 * time.Second)
	if !d.RetryAt.Equal(want) {
		t.Errorf("RetryAt = %v, want %v", d.RetryAt, want)
	}
}

func TestSlidingWindow_ConstructionErrors(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)

	cases := []struct {
		name      string
		threshold int
		window    time.Duration
		clk       clock.Clock
	}{
		{"zero threshold", 0, time.Minute, vc},
		{"negative threshold", -1, time.Minute, vc},
		{"zero window", 5, 0, vc},
		{"negative window", 5, -time.Second, vc},
		{"nil clock", 5, time.Minute, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSlidingWindowCounter(tc.threshold, tc.window, tc.clk); err == nil {
				t.Error("expected construction error")
			}
		})
	}
}

func TestSlidingWindow_ConcurrentExactCount(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	sw := newSliding(t, 5, 10*time.Second, vc)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sw.Allow(ctx).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 5 {
		t.Errorf("allowed %d concurrent requests, want exactly 5", allowed)
	}
}

func TestSlidingWindow_ImplementsLimiter(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	var _ limiter.Limiter = newSliding(t, 5, time.Minute, vc)
}
