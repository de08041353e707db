// Package logger provides structured logging for camlink.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, JSON/text handlers, dynamic level
//   - context.go: context propagation of the logger, request and session IDs
//   - redact.go: frame payload summarization and secret redaction
//
// Camera frames travel as data URLs of several hundred kilobytes. Any
// string attribute holding a data URL is replaced by a short summary so a
// debug log of a streaming session stays readable.
package logger
