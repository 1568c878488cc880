package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/limitr/limitr/internal/config"
	"github.com/limitr/limitr/pkg/limiter"
)

// limiterFlags is the flag set shared by every command that builds a limiter.
type limiterFlags struct {
	algorithm string
	rate      int
	window    time.Duration
	burst     int
}

func (f *limiterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.algorithm, "algorithm", "token_bucket", "algorithm (token_bucket, leaky_bucket, sliding_window, fixed_window)")
	cmd.Flags().IntVar(&f.rate, "rate", 10, "requests allowed per window")
	cmd.Flags().DurationVar(&f.window, "window", time.Minute, "window duration")
	cmd.Flags().IntVar(&f.burst, "burst", 0, "max burst size, 0 = same as rate (bucket algorithms only)")
}

func (f *limiterFlags) config() limiter.Config {
	return limiter.Config{
		Algorithm: limiter.Algorithm(f.algorithm),
		Rate:      f.rate,
		Window:    f.window,
		Burst:     f.burst,
	}
}

// resolveLimiterConfig merges a config file with explicit flags. Flags the
// user set on the command line win over file values.
func resolveLimiterConfig(cmd *cobra.Command, configPath string, f *limiterFlags) (limiter.Config, error) {
	if configPath == "" {
		return f.config(), nil
	}

	fileCfg, err := config.LoadFile(configPath)
	if err != nil {
		return limiter.Config{}, err
	}
	cfg := fileCfg.Limiter

	if cmd.Flags().Changed("algorithm") {
		cfg.Algorithm = limiter.Algorithm(f.algorithm)
	}
	if cmd.Flags().Changed("rate") {
		cfg.Rate = f.rate
	}
	if cmd.Flags().Changed("window") {
		cfg.Window = f.window
	}
	if cmd.Flags().Changed("burst") {
		cfg.Burst = f.burst
	}
	return cfg, nil
}
