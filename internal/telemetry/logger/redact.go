package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Key fragments whose values are never logged in clear.
var sensitiveKeyPatterns = []string{
	"private",
	"key_pem",
	"secret",
	"password",
}

const redactedValue = "***REDACTED***"

// dataURLPrefix marks a frame payload.
const dataURLPrefix = "data:"

// redactSensitive rewrites an attribute before it reaches the handler.
// Data URLs are summarized, sensitive keys are fully redacted, groups are
// walked recursively.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if IsSensitiveKey(a.Key) && strVal != "" {
			return slog.String(a.Key, redactedValue)
		}
		if strings.HasPrefix(strVal, dataURLPrefix) {
			return slog.String(a.Key, SummarizeFrame(strVal))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// SummarizeFrame shortens a data URL to its header plus the payload size,
// e.g. "data:image/jpeg;base64,…(182044 bytes)". Other strings are
// returned unchanged.
func SummarizeFrame(value string) string {
	if !strings.HasPrefix(value, dataURLPrefix) {
		return value
	}
	comma := strings.IndexByte(value, ',')
	if comma < 0 || comma > 64 {
		return dataURLPrefix + "…(" + strconv.Itoa(len(value)) + " bytes)"
	}
	return value[:comma+1] + "…(" + strconv.Itoa(len(value)-comma-1) + " bytes)"
}

// IsSensitiveKey checks if a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
