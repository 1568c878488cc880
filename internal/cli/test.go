package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
	"github.com/limitr/limitr/pkg/limiter/factory"
)

func newTestCmd() *cobra.Command {
	var (
		lf          limiterFlags
		configPath  string
		requests    int
		keys        []string
		fastForward time.Duration
		outputJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run admission test scenarios with time travel",
		Long: `Runs admission checks against a virtual clock, allowing you to
fast-forward time without waiting. This lets you verify limiter
behavior over hours or days in seconds.

The test sends a batch of requests, optionally fast-forwards time,
then sends another batch to show how limits reset.`,
		Example: `  limitr test --requests 20 --rate 10 --window 1m
  limitr test --algorithm sliding_window --rate 5 --window 30s --fast-forward 1m
  limitr test --keys user1,user2 --requests 15 --rate 10 --window 1m --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(keys) == 0 {
				keys = []string{"test-user"}
			}

			cfg, err := resolveLimiterConfig(cmd, configPath, &lf)
			if err != nil {
				return err
			}

			vc := clock.NewVirtualClock(time.Now().Truncate(time.Second))
			pool, err := factory.PoolFromConfig(cfg, 0, vc)
			if err != nil {
				return err
			}

			result := runTest(vc, pool, keys, requests, fastForward)
			result.Algorithm = string(cfg.Algorithm)
			result.Rate = cfg.Rate
			result.Window = cfg.Window.String()

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printTestResult(&result)
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVar(&configPath, "config", "", "config file supplying limiter settings")
	cmd.Flags().IntVar(&requests, "requests", 15, "number of requests to send per batch")
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "comma-separated keys to test")
	cmd.Flags().DurationVar(&fastForward, "fast-forward", 0, "time to fast-forward between batches")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output results as JSON")

	return cmd
}

// TestResult captures the full output of a test run.
type TestResult struct {
	Algorithm   string             `json:"algorithm"`
	Rate        int                `json:"rate"`
	Window      string             `json:"window"`
	FastForward string             `json:"fast_forward,omitempty"`
	Batches     []BatchResult      `json:"batches"`
	Summary     map[string]Summary `json:"summary"`
}

// BatchResult captures results for one batch of requests.
type BatchResult struct {
	Label     string           `json:"label"`
	Time      string           `json:"time"`
	Decisions []DecisionRecord `json:"decisions"`
}

// DecisionRecord is a single admission check result.
type DecisionRecord struct {
	Key      string           `json:"key"`
	Decision limiter.Decision `json:"decision"`
}

// Summary aggregates stats per key.
type Summary struct {
	TotalRequests int `json:"total_requests"`
	Allowed       int `json:"allowed"`
	Denied        int `json:"denied"`
}

func runTest(vc *clock.VirtualClock, pool *limiter.Keyed, keys []string, requests int, fastForward time.Duration) TestResult {
	ctx := context.Background()

	result := TestResult{
		Summary: make(map[string]Summary),
	}

	runBatch := func(label string) {
		batch := BatchResult{
			Label: label,
			Time:  vc.Now().Format(time.RFC3339),
		}
		for i := 0; i < requests; i++ {
			for _, key := range keys {
				d := pool.Allow(ctx, key)
				batch.Decisions = append(batch.Decisions, DecisionRecord{Key: key, Decision: d})
				s := result.Summary[key]
				s.TotalRequests++
				if d.Allowed {
					s.Allowed++
				} else {
					s.Denied++
				}
				result.Summary[key] = s
			}
		}
		result.Batches = append(result.Batches, batch)
	}

	runBatch("Initial requests")

	if fastForward > 0 {
		vc.Advance(fastForward)
		result.FastForward = fastForward.String()
		runBatch(fmt.Sprintf("After fast-forward %s", fastForward))
	}

	return result
}

func printTestResult(r *TestResult) {
	fmt.Println("=== limitr admission test ===")
	fmt.Println()

	for _, batch := range r.Batches {
		fmt.Printf("--- %s (at %s) ---\n", batch.Label, batch.Time)
		for i, dr := range batch.Decisions {
			status := "ALLOW"
			if !dr.Decision.Allowed {
				status = "DENY "
			}
			fmt.Printf("  #%03d [%s] key=%s remaining=%d/%d\n",
				i+1, status, dr.Key, dr.Decision.Remaining, dr.Decision.Limit)
		}
		fmt.Println()
	}

	fmt.Println("--- Summary ---")
	for key, s := range r.Summary {
		fmt.Printf("  %s: %d total, %d allowed, %d denied\n",
			key, s.TotalRequests, s.Allowed, s.Denied)
	}

	if r.FastForward != "" {
		fmt.Printf("\nTime travel: fast-forwarded %s\n", r.FastForward)
	}

	hasDenials := false
	for _, batch := range r.Batches {
		for _, dr := range batch.Decisions {
			if !dr.Decision.Allowed {
				hasDenials = true
			}
		}
	}
	hasRecovery := false
	if len(r.Batches) > 1 {
		for _, dr := range r.Batches[1].Decisions {
			if dr.Decision.Allowed {
				hasRecovery = true
				break
			}
		}
	}
	if hasDenials && hasRecovery {
		fmt.Println()
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("Time travel worked! Requests were denied, then")
		fmt.Println("allowed again after fast-forwarding the clock.")
		fmt.Println(strings.Repeat("=", 50))
	}
}
