package httpserver

import (
	"log/slog"
	"net/http"
	"path"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/server/static"
	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Static serves the web client assets, one route per bundled path.
	Static *static.Bundle

	// Relay handles WebSocket upgrades on /ws.
	Relay http.Handler

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics records HTTP request counters. May be nil.
	Metrics *metric.Registry
}

// NewRouter creates the route table and wraps it in the middleware chain.
//
// Order: Recover -> RequestID -> Audit -> clean path check -> mux.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// Patterns carry no method so the handlers answer 405 themselves.
	mux := http.NewServeMux()
	for _, p := range cfg.Static.Paths() {
		if p == "/" {
			p = "/{$}"
		}
		mux.Handle(p, cfg.Static)
	}
	mux.Handle(domain.WebSocketPath, cfg.Relay)

	return Chain(cleanPathOnly(mux),
		Recover(log),
		RequestID(),
		Audit(log, cfg.Metrics),
	)
}

// cleanPathOnly answers 404 for paths the mux would otherwise redirect
// to their cleaned form, such as "/./app.js" or "//app.js".
func cleanPathOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; path.Clean(p) != p {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
