package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/limitr/limitr/internal/replay"
	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter/factory"
)

func newReplayCmd() *cobra.Command {
	var (
		lf         limiterFlags
		configPath string
		file       string
		maxRPS     float64
		keys       []string
		endpoints  []string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded traffic through a limiter",
		Long: `Replays previously recorded traffic through a limiter.

Records are replayed in timestamp order. The virtual clock advances
to match the time gaps between records, so admission decisions come
out exactly as they would have in production, regardless of how fast
the replay itself runs. Use --max-rps to slow the replay down to a
watchable pace; by default it runs flat out.`,
		Example: `  limitr replay --file traffic.json
  limitr replay --file traffic.json --algorithm sliding_window --rate 100
  limitr replay --file traffic.json --keys user1,user2 --endpoints /api
  limitr replay --file traffic.json --max-rps 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			cfg, err := resolveLimiterConfig(cmd, configPath, &lf)
			if err != nil {
				return err
			}

			vc := clock.NewVirtualClock(time.Now().Truncate(time.Second))
			pool, err := factory.PoolFromConfig(cfg, 0, vc)
			if err != nil {
				return err
			}

			r := replay.New(pool, vc, maxRPS, replay.Filter{
				Keys:      keys,
				Endpoints: endpoints,
			})
			if err := r.Load(f); err != nil {
				return err
			}

			if !outputJSON {
				fmt.Printf("Replaying %s...\n\n", file)
			}

			var results []replay.Result
			summary, err := r.Run(context.Background(), func(res replay.Result) {
				if outputJSON {
					results = append(results, res)
					return
				}
				status := "ALLOW"
				if !res.Decision.Allowed {
					status = "DENY "
				}
				fmt.Printf("  [%s] %s key=%s remaining=%d/%d\n",
					status,
					res.Record.Timestamp.Format("15:04:05"),
					res.Record.Key,
					res.Decision.Remaining,
					res.Decision.Limit)
			})
			if err != nil {
				return err
			}

			if outputJSON {
				out := map[string]interface{}{
					"results": results,
					"summary": summary,
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Println()
			fmt.Println("--- Replay Summary ---")
			fmt.Printf("  Total records:  %d\n", summary.TotalRecords)
			fmt.Printf("  Filtered:       %d\n", summary.Filtered)
			fmt.Printf("  Replayed:       %d\n", summary.Replayed)
			fmt.Printf("  Allowed:        %d\n", summary.Allowed)
			fmt.Printf("  Denied:         %d\n", summary.Denied)
			fmt.Printf("  Virtual time:   %s\n", summary.Duration)
			fmt.Printf("  Wall time:      %s\n", summary.WallDuration.Round(time.Millisecond))

			if len(summary.PerKey) > 1 {
				fmt.Println()
				fmt.Println("  Per key:")
				for key, ks := range summary.PerKey {
					fmt.Printf("    %s: %d allowed, %d denied\n", key, ks.Allowed, ks.Denied)
				}
			}

			if summary.Denied > 0 && summary.Allowed > 0 {
				fmt.Println()
				fmt.Println(strings.Repeat("=", 50))
				denyRate := float64(summary.Denied) / float64(summary.Replayed) * 100
				fmt.Printf("Deny rate: %.1f%% (%d/%d requests denied)\n", denyRate, summary.Denied, summary.Replayed)
				fmt.Println(strings.Repeat("=", 50))
			}

			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVar(&configPath, "config", "", "config file supplying limiter settings")
	cmd.Flags().StringVar(&file, "file", "", "path to recorded traffic JSON file (required)")
	cmd.Flags().Float64Var(&maxRPS, "max-rps", 0, "cap replay speed in records per second (0 = flat out)")
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "filter by keys (comma-separated)")
	cmd.Flags().StringSliceVar(&endpoints, "endpoints", nil, "filter by endpoints (comma-separated)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output results as JSON")

	return cmd
}
