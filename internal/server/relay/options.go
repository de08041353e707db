package relay

import (
	"log/slog"

	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

// DefaultReadLimit caps a single inbound message. A 4K JPEG encoded as a
// base64 data URL stays well below it.
const DefaultReadLimit int64 = 16 << 20

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the relay logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics enables session and frame metrics.
func WithMetrics(m *metric.Registry) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithReadLimit sets the maximum inbound message size in bytes.
// Non-positive values keep the default.
func WithReadLimit(n int64) Option {
	return func(r *Relay) {
		if n > 0 {
			r.readLimit = n
		}
	}
}
