package config

import "time"

// ServerConfig is the root configuration for camlink-server.
type ServerConfig struct {
	Stream  StreamSection  `koanf:"stream"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// StreamSection tunes the WebSocket relay.
type StreamSection struct {
	// ReadLimit is the largest accepted WebSocket message in bytes.
	ReadLimit int64 `koanf:"read_limit"`

	// ReadHeaderTimeout bounds how long a client may take to send request
	// headers, including the upgrade request.
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
}

// MetricsSection configures the optional Prometheus listener.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`

	// Token, when set, is required as a bearer token on /metrics.
	Token string `koanf:"token"`
}

// LogSection configures logging.
type LogSection struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	Output    string `koanf:"output"`
	AddSource bool   `koanf:"add_source"`
}
