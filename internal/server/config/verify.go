package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/telemetry/logger"
)

// Limits on stream.read_limit.
const (
	MinReadLimit = 64 << 10
	MaxReadLimit = 256 << 20
)

// Limits on stream.read_header_timeout.
const (
	MinReadHeaderTimeout = time.Second
	MaxReadHeaderTimeout = 2 * time.Minute
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	var errs []error
	if err := verifyStream(&cfg.Stream); err != nil {
		errs = append(errs, err)
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		errs = append(errs, err)
	}
	if err := verifyLog(&cfg.Log); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func verifyStream(cfg *StreamSection) error {
	if cfg.ReadLimit < MinReadLimit || cfg.ReadLimit > MaxReadLimit {
		return fmt.Errorf("stream.read_limit must be between %d and %d bytes, got %d",
			MinReadLimit, MaxReadLimit, cfg.ReadLimit)
	}
	if cfg.ReadHeaderTimeout < MinReadHeaderTimeout || cfg.ReadHeaderTimeout > MaxReadHeaderTimeout {
		return fmt.Errorf("stream.read_header_timeout must be between %s and %s, got %s",
			MinReadHeaderTimeout, MaxReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	host, port, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return fmt.Errorf("metrics.addr %q: %w", cfg.Addr, err)
	}
	if port == fmt.Sprint(domain.StreamPort) && (host == "" || host == domain.BindAddr) {
		return fmt.Errorf("metrics.addr %q collides with the streaming port", cfg.Addr)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", cfg.Format)
	}
	switch cfg.Output {
	case "stderr", "stdout":
	default:
		return fmt.Errorf("log.output %q must be stderr or stdout", cfg.Output)
	}
	return nil
}
