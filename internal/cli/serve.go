package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/limitr/limitr/internal/config"
	"github.com/limitr/limitr/internal/recorder"
	"github.com/limitr/limitr/internal/server"
	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
)

func newServeCmd() *cobra.Command {
	var (
		lf         limiterFlags
		addr       string
		configPath string
		watch      bool
		recordFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the limitr HTTP server",
		Long: `Starts an HTTP server that applies per-key admission control.

Endpoints:
  GET /                  Server info
  GET /health            Health check
  GET /api/check         Admission check using client IP
  GET /api/check/:key    Admission check for a specific key
  GET /dashboard         Live decision viewer
  GET /metrics           Prometheus metrics
  WS  /ws                WebSocket stream of decisions`,
		Example: `  limitr serve
  limitr serve --addr :9090 --algorithm sliding_window --rate 100 --window 1m
  limitr serve --config limitr.json --watch
  limitr serve --record traffic.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.LoadFile(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("algorithm") {
				cfg.Limiter.Algorithm = limiter.Algorithm(lf.algorithm)
			}
			if cmd.Flags().Changed("rate") {
				cfg.Limiter.Rate = lf.rate
			}
			if cmd.Flags().Changed("window") {
				cfg.Limiter.Window = lf.window
			}
			if cmd.Flags().Changed("burst") {
				cfg.Limiter.Burst = lf.burst
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			clk := clock.NewSystemClock()
			srv, err := server.New(cfg, clk)
			if err != nil {
				return err
			}

			var rec *recorder.Recorder
			if recordFile != "" {
				rec = recorder.New(nil)
				srv.AttachRecorder(rec)
			}

			log.Printf("Dashboard: http://localhost%s/dashboard", cfg.Server.Addr)
			log.Printf("API:       http://localhost%s/api/check/{key}", cfg.Server.Addr)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Hot reload: on file change, swap the admission policy in place.
			if watch {
				if configPath == "" {
					log.Println("--watch ignored: no --config file given")
				} else {
					watcher, err := config.NewWatcher(configPath, 0)
					if err != nil {
						return err
					}
					defer watcher.Close()
					go watcher.Watch(ctx, func(next config.Config) {
						if err := srv.SetLimiterConfig(next.Limiter, next.Server.KeyTTL); err != nil {
							log.Printf("applying reloaded config: %v", err)
						}
					})
				}
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Println("shutting down...")
				if rec != nil {
					log.Printf("exporting %d records to %s", rec.Len(), recordFile)
					if err := rec.ExportFile(recordFile); err != nil {
						log.Printf("error exporting records: %v", err)
					}
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVar(&configPath, "config", "", "config file path")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the config file when it changes")
	cmd.Flags().StringVar(&recordFile, "record", "", "record traffic to JSON file (exported on shutdown)")

	return cmd
}
