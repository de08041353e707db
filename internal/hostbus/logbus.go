package hostbus

import (
	"context"
	"log/slog"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/telemetry/logger"
)

// LogBus writes events to a structured logger. Frame events are logged at
// debug level with the payload reduced to its size; lifecycle events are
// logged at info.
type LogBus struct {
	logger *slog.Logger
}

// NewLogBus creates a LogBus. A nil logger uses slog.Default().
func NewLogBus(l *slog.Logger) *LogBus {
	if l == nil {
		l = slog.Default()
	}
	return &LogBus{logger: l}
}

// Emit implements Bus.
func (b *LogBus) Emit(event string, payload any) error {
	level := slog.LevelInfo
	if event == domain.EventCameraFrame {
		level = slog.LevelDebug
	}
	if !b.logger.Enabled(context.Background(), level) {
		return nil
	}

	args := []any{"event", event}
	switch p := payload.(type) {
	case nil:
	case string:
		args = append(args, "payload", logger.SummarizeFrame(p))
	default:
		args = append(args, "payload", p)
	}
	b.logger.Log(context.Background(), level, "host event", args...)
	return nil
}
