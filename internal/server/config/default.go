package config

import "time"

// Default configuration values.
const (
	DefaultReadLimit         = 16 << 20
	DefaultReadHeaderTimeout = 10 * time.Second

	DefaultMetricsAddr = "127.0.0.1:9104"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stderr"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Stream: StreamSection{
			ReadLimit:         DefaultReadLimit,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
		},
		Metrics: MetricsSection{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
	}
}
