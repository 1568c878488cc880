package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/limitr/limitr/internal/config"
	"github.com/limitr/limitr/internal/recorder"
	"github.com/limitr/limitr/pkg/clock"
	"github.com/limitr/limitr/pkg/limiter"
	"github.com/limitr/limitr/pkg/limiter/factory"
)

// cleanupInterval is how often idle keys are evicted.
const cleanupInterval = time.Minute

// Server is the limitr HTTP server. It applies the configured admission
// policy per key, exposes Prometheus metrics, and streams decisions to
// dashboard clients over WebSocket.
type Server struct {
	httpServer *http.Server
	clock      clock.Clock
	mux        *http.ServeMux
	metrics    *Metrics
	hub        *Hub
	rec        *recorder.Recorder // nil = recording disabled

	mu     sync.RWMutex
	pool   *limiter.Keyed
	limCfg limiter.Config

	stopJanitor chan struct{}
	janitorOnce sync.Once
}

// New creates a server for the given config.
func New(cfg config.Config, clk clock.Clock) (*Server, error) {
	pool, err := factory.PoolFromConfig(cfg.Limiter, cfg.Server.KeyTTL, clk)
	if err != nil {
		return nil, fmt.Errorf("building limiter pool: %w", err)
	}

	s := &Server{
		clock:       clk,
		mux:         http.NewServeMux(),
		metrics:     NewMetrics(),
		hub:         NewHub(),
		pool:        pool,
		limCfg:      cfg.Limiter,
		stopJanitor: make(chan struct{}),
	}
	s.hub.onCountChange = s.metrics.SetWSClients
	s.routes()
	s.httpServer = &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: s.mux,
	}
	return s, nil
}

// AttachRecorder enables traffic recording. Every admission check appends a
// record, and decision events broadcast to the dashboard carry the record.
// Call before Start.
func (s *Server) AttachRecorder(rec *recorder.Recorder) {
	s.rec = rec
}

// SetLimiterConfig swaps the admission policy at runtime. Existing per-key
// state is discarded; every key starts fresh under the new policy.
func (s *Server) SetLimiterConfig(cfg limiter.Config, keyTTL time.Duration) error {
	pool, err := factory.PoolFromConfig(cfg, keyTTL, s.clock)
	if err != nil {
		return fmt.Errorf("building limiter pool: %w", err)
	}

	s.mu.Lock()
	s.pool = pool
	s.limCfg = cfg
	s.mu.Unlock()

	log.Printf("limiter policy updated: algorithm=%s rate=%d window=%s burst=%d",
		cfg.Algorithm, cfg.Rate, cfg.Window, cfg.Burst)
	return nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/check", s.handleCheck)
	s.mux.HandleFunc("/api/check/", s.handleCheckKey)
	s.mux.HandleFunc("/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/ws", s.hub.HandleWebSocket)
	s.mux.Handle("/metrics", s.metrics.Handler())
}

// handleRoot serves a welcome message.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.mu.RLock()
	algo := s.limCfg.Algorithm
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service":   "limitr",
		"status":    "running",
		"algorithm": string(algo),
		"time":      s.clock.Now().Format(time.RFC3339),
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleDashboard serves the embedded live decision viewer.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, DashboardHTML)
}

// handleCheck performs an admission check using the client IP as the key.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithDecision(w, r, clientKey(r))
}

// handleCheckKey performs an admission check using the key from the URL path.
// Path: /api/check/{key}
func (s *Server) handleCheckKey(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path[len("/api/check/"):]
	if key == "" {
		http.Error(w, `{"error":"key is required"}`, http.StatusBadRequest)
		return
	}
	s.respondWithDecision(w, r, key)
}

func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

func (s *Server) respondWithDecision(w http.ResponseWriter, r *http.Request, key string) {
	s.mu.RLock()
	pool := s.pool
	algo := s.limCfg.Algorithm
	s.mu.RUnlock()

	start := time.Now()
	decision := pool.Allow(r.Context(), key)
	s.metrics.RecordCheckDuration(time.Since(start).Seconds())
	s.metrics.RecordDecision(string(algo), decision.Allowed)

	tr := recorder.TrafficRecord{
		Timestamp: s.clock.Now(),
		Key:       key,
		Endpoint:  r.Method + " " + r.URL.Path,
	}
	if s.rec != nil {
		tr.Metadata = map[string]string{"user_agent": r.UserAgent()}
		if err := s.rec.Record(tr); err != nil {
			log.Printf("record error: %v", err)
		}
	}
	s.hub.Broadcast(&recorder.DecisionEvent{
		Record:   tr,
		Decision: decision,
		Time:     s.clock.Now(),
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", decision.ResetAt.Format(time.RFC3339))

	if !decision.Allowed {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(decision.RetryAt.Sub(s.clock.Now()).Seconds())+1))
		w.WriteHeader(http.StatusTooManyRequests)
	}

	json.NewEncoder(w).Encode(decision)
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.StartOnListener(ln)
}

// StartOnListener begins serving on the provided listener.
// Useful for tests that need to pick an ephemeral port.
func (s *Server) StartOnListener(ln net.Listener) error {
	log.Printf("limitr server listening on %s", ln.Addr().String())
	go s.janitor()
	return s.httpServer.Serve(ln)
}

// janitor periodically evicts idle keys and refreshes the live-key gauge.
func (s *Server) janitor() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopJanitor:
			return
		case <-ticker.C:
			s.mu.RLock()
			pool := s.pool
			s.mu.RUnlock()
			if removed := pool.Cleanup(); removed > 0 {
				log.Printf("evicted %d idle keys", removed)
			}
			s.metrics.SetLiveKeys(pool.Len())
		}
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.janitorOnce.Do(func() { close(s.stopJanitor) })
	return s.httpServer.Shutdown(ctx)
}
