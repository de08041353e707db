package httpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/camlink/camlink-go/internal/infra/buildinfo"
	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	ActiveSessions int    `json:"active_sessions"`
}

// MetricsServer is the plain HTTP listener for /metrics and /healthz.
type MetricsServer struct {
	addr     string
	registry *metric.Registry
	sessions func() int
	logger   *slog.Logger
	token    string

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// MetricsOption configures a MetricsServer.
type MetricsOption func(*MetricsServer)

// WithMetricsToken requires "Authorization: Bearer <token>" on /metrics.
func WithMetricsToken(token string) MetricsOption {
	return func(m *MetricsServer) {
		m.token = token
	}
}

// NewMetricsServer creates a metrics listener on addr. sessions reports the
// live session count for /healthz and may be nil.
func NewMetricsServer(addr string, registry *metric.Registry, sessions func() int, log *slog.Logger, opts ...MetricsOption) *MetricsServer {
	if log == nil {
		log = slog.Default()
	}
	if sessions == nil {
		sessions = func() int { return 0 }
	}
	m := &MetricsServer{addr: addr, registry: registry, sessions: sessions, logger: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler returns the route table of the metrics listener.
func (m *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", MetricsAuth(m.token)(m.registry.Handler()))
	mux.HandleFunc("GET /healthz", m.handleHealth)
	return Chain(mux, Recover(m.logger))
}

func (m *MetricsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status:         "ok",
		Version:        buildinfo.Get().Version,
		ActiveSessions: m.sessions(),
	})
}

// Start binds addr and serves until Shutdown. It returns nil after Shutdown.
func (m *MetricsServer) Start() error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", m.addr, err)
	}
	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
	m.mu.Lock()
	m.srv, m.ln = srv, ln
	m.mu.Unlock()

	m.logger.Info("metrics listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics serve: %w", err)
	}
	return nil
}

// Addr returns the bound address, or nil before Start binds.
func (m *MetricsServer) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return nil
	}
	return m.ln.Addr()
}

// Shutdown stops the listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	srv := m.srv
	m.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// MetricsAuth rejects requests without the bearer token. An empty token
// disables the check.
func MetricsAuth(token string) Middleware {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte("Bearer " + token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
