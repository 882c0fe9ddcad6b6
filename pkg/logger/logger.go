// Package logger builds the single zap configuration used across the
// module, so every package logs at the same level and in the same shape
// regardless of which component emits the entry.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger tagged with the given service name.
// The encoding and level are driven by environment variables so a single
// binary behaves differently in a container (JSON, info) than on a
// developer's terminal (console, debug), without requiring a recompile.
//
//   - SPACE_LOG_LEVEL: debug|info|warn|error (default info)
//   - SPACE_LOG_FORMAT: json|console (default console)
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(os.Getenv("SPACE_LOG_LEVEL")))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if strings.EqualFold(os.Getenv("SPACE_LOG_FORMAT"), "json") {
		cfg.Encoding = "json"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg.Encoding = "console"
	}

	base, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		// cfg.Build only fails on a malformed encoder/sink config, which
		// this function never produces, so fall back to a logger that is
		// always safe to use rather than propagating a constructor error
		// that every caller would have to handle.
		base = zap.NewExample()
	}

	return base.Named(service).Sugar()
}

// NewNop returns a logger that discards all output, for use in tests that
// don't want log noise but still need to satisfy a *zap.SugaredLogger
// dependency.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func parseLevel(raw string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
