package httpserver

import (
	"log/slog"
	"time"

	"github.com/camlink/camlink-go/internal/server/relay"
	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

const (
	// DefaultReadHeaderTimeout bounds the TLS handshake plus request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables HTTP and relay metrics.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithReadLimit caps the size of a single WebSocket message.
func WithReadLimit(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.readLimit = n
		}
	}
}

// WithReadHeaderTimeout overrides DefaultReadHeaderTimeout.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readHeaderTimeout = d
		}
	}
}

func (s *Server) relayOptions() []relay.Option {
	return []relay.Option{
		relay.WithLogger(s.logger),
		relay.WithMetrics(s.metrics),
		relay.WithReadLimit(s.readLimit),
	}
}
