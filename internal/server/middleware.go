package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/limitr/limitr/internal/recorder"
	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
)

// RateLimitMiddleware guards an arbitrary handler with a per-key pool, keyed
// by client IP. Denied requests get a 429 with the standard headers and
// never reach the wrapped handler.
func RateLimitMiddleware(next http.Handler, pool *limiter.Keyed, clk clock.Clock) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := pool.Allow(r.Context(), clientKey(r))

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", decision.ResetAt.Format(time.RFC3339))

		if !decision.Allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(decision.RetryAt.Sub(clk.Now()).Seconds())+1))
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordingMiddleware wraps an http.Handler and records traffic.
func RecordingMiddleware(next http.Handler, rec *recorder.Recorder, clk clock.Clock) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr := recorder.TrafficRecord{
			Timestamp: clk.Now(),
			Key:       clientKey(r),
			Endpoint:  r.Method + " " + r.URL.Path,
			Metadata: map[string]string{
				"user_agent": r.UserAgent(),
			},
		}
		if err := rec.Record(tr); err != nil {
			log.Printf("record error: %v", err)
		}
		next.ServeHTTP(w, r)
	})
}
