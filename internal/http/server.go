package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"finbot/internal/log"
	"finbot/internal/ratelimit"
)

// ReadinessFunc reports whether the process can serve chat traffic.
type ReadinessFunc func() bool

// StatsProvider exposes process counters for /stats.
type StatsProvider interface {
	Users() int
}

// RateLimitStats exposes limiter counters for /stats.
type RateLimitStats interface {
	GetMetrics() ratelimit.Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimitStats adds the limiter counters to /stats.
func WithRateLimitStats(rl RateLimitStats) Option {
	return func(s *Server) { s.limits = rl }
}

// Server serves the health and stats endpoints of a bot process.
type Server struct {
	http.Server
	ready  ReadinessFunc
	stats  StatsProvider
	limits RateLimitStats
	logger *log.Logger
}

type statsResponse struct {
	Users            int    `json:"users"`
	RateLimited      *int64 `json:"rate_limited,omitempty"`
	RateLimitClients *int64 `json:"rate_limit_clients,omitempty"`
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ready ReadinessFunc, stats StatsProvider, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		ready:  ready,
		stats:  stats,
		logger: logger.WithComponent(log.ComponentHTTP),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /stats", s.handleStats)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           withRequestID(log.Middleware(s.logger)(withSecurityHeaders(mux))),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Health server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil || !s.ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var resp statsResponse
	if s.stats != nil {
		resp.Users = s.stats.Users()
	}
	if s.limits != nil {
		m := s.limits.GetMetrics()
		resp.RateLimited = &m.TotalHits
		resp.RateLimitClients = &m.ClientCount
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode stats", log.FieldError, err)
	}
}

// withRequestID tags every request with an id, reusing X-Request-ID when the
// caller sent one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(log.WithRequestID(r.Context(), id)))
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
