package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
	"github.com/limitr/limitr/pkg/limiter/factory"
)

var epoch = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func testPool(t *testing.T, cfg limiter.Config, vc *clock.VirtualClock) *limiter.Keyed {
	t.Helper()
	pool, err := factory.PoolFromConfig(cfg, 0, vc)
	if err != nil {
		t.Fatalf("PoolFromConfig: %v", err)
	}
	return pool
}

func TestRunTest_BasicTokenBucket(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	pool := testPool(t, limiter.Config{
		Algorithm: limiter.AlgorithmTokenBucket,
		Rate:      5,
		Window:    time.Minute,
		Burst:     5,
	}, vc)

	result := runTest(vc, pool, []string{"user1"}, 10, 0)

	if len(result.Batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(result.Batches))
	}

	s := result.Summary["user1"]
	if s.TotalRequests != 10 {
		t.Errorf("total requests = %d, want 10", s.TotalRequests)
	}
	if s.Allowed != 5 {
		t.Errorf("allowed = %d, want 5", s.Allowed)
	}
	if s.Denied != 5 {
		t.Errorf("denied = %d, want 5", s.Denied)
	}
}

func TestRunTest_WithFastForward(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	pool := testPool(t, limiter.Config{
		Algorithm: limiter.AlgorithmTokenBucket,
		Rate:      5,
		Window:    time.Minute,
		Burst:     5,
	}, vc)

	result := runTest(vc, pool, []string{"user1"}, 8, time.Minute)

	if len(result.Batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(result.Batches))
	}
	if result.FastForward != "1m0s" {
		t.Errorf("fast_forward = %q, want %q", result.FastForward, "1m0s")
	}

	// Batch 1: 5 allowed, 3 denied. Batch 2 after refill: the same again.
	s := result.Summary["user1"]
	if s.Allowed != 10 {
		t.Errorf("total allowed = %d, want 10", s.Allowed)
	}
	if s.Denied != 6 {
		t.Errorf("total denied = %d, want 6", s.Denied)
	}
}

func TestRunTest_MultipleKeys(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	pool := testPool(t, limiter.Config{
		Algorithm: limiter.AlgorithmTokenBucket,
		Rate:      3,
		Window:    time.Minute,
		Burst:     3,
	}, vc)

	result := runTest(vc, pool, []string{"user1", "user2"}, 5, 0)

	for _, key := range []string{"user1", "user2"} {
		s := result.Summary[key]
		if s.TotalRequests != 5 {
			t.Errorf("%s: total = %d, want 5", key, s.TotalRequests)
		}
		if s.Allowed != 3 {
			t.Errorf("%s: allowed = %d, want 3", key, s.Allowed)
		}
		if s.Denied != 2 {
			t.Errorf("%s: denied = %d, want 2", key, s.Denied)
		}
	}
}

func TestRunTest_SlidingWindow(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	pool := testPool(t, limiter.Config{
		Algorithm: limiter.AlgorithmSlidingWindow,
		Rate:      5,
		Window:    time.Minute,
	}, vc)

	result := runTest(vc, pool, []string{"user1"}, 8, time.Minute)

	s := result.Summary["user1"]
	if s.Allowed != 10 {
		t.Errorf("allowed = %d, want 10", s.Allowed)
	}
}

func TestRunTest_FixedWindow(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	pool := testPool(t, limiter.Config{
		Algorithm: limiter.AlgorithmFixedWindow,
		Rate:      5,
		Window:    time.Minute,
	}, vc)

	result := runTest(vc, pool, []string{"user1"}, 8, time.Minute)

	s := result.Summary["user1"]
	if s.Allowed != 10 {
		t.Errorf("allowed = %d, want 10", s.Allowed)
	}
}

func TestRunTest_LeakyBucket(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	pool := testPool(t, limiter.Config{
		Algorithm: limiter.AlgorithmLeakyBucket,
		Rate:      5,
		Window:    time.Minute,
		Burst:     5,
	}, vc)

	result := runTest(vc, pool, []string{"user1"}, 8, time.Minute)

	s := result.Summary["user1"]
	// 5 fit before overflow, then the minute drains the bucket for 5 more.
	if s.Allowed != 10 {
		t.Errorf("allowed = %d, want 10", s.Allowed)
	}
}

func TestNewTestCmd_ExecutesWithDefaults(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"test", "--requests", "5", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("test command failed: %v", err)
	}
}

func TestNewTestCmd_AllAlgorithms(t *testing.T) {
	for _, algo := range []string{"token_bucket", "leaky_bucket", "sliding_window", "fixed_window"} {
		t.Run(algo, func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetArgs([]string{"test", "--algorithm", algo, "--requests", "3", "--json"})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("test command with %s failed: %v", algo, err)
			}
		})
	}
}

func TestNewTestCmd_WithFastForward(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"test", "--requests", "5", "--fast-forward", "1h", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("test command with fast-forward failed: %v", err)
	}
}

func TestNewTestCmd_InvalidAlgorithm(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"test", "--algorithm", "bogus"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid algorithm")
	}
}

func TestNewTestCmd_LoadsConfigFile(t *testing.T) {
	content := `{
  "limiter": {
    "algorithm": "fixed_window",
    "rate": 2,
    "window": "1m"
  }
}`
	path := filepath.Join(t.TempDir(), "limitr.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"test", "--config", path, "--requests", "2", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("test command with config failed: %v", err)
	}
}

func TestNewTestCmd_FlagsOverrideConfig(t *testing.T) {
	content := `{"limiter": {"algorithm": "bogus"}}`
	path := filepath.Join(t.TempDir(), "limitr.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// The file's algorithm is invalid, but the explicit flag wins.
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"test", "--config", path, "--algorithm", "token_bucket", "--requests", "2", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("flag should override config file, got %v", err)
	}
}
