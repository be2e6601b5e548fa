// Package logging builds the unitconv [log/slog] logger from the
// configuration and carries it through command contexts.
//
// Each collaborator (rates, history, server, converter) logs through a child
// logger tagged with a "component" attribute so that JSON logs can be
// filtered per subsystem.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/convertkit/unitconv/internal/config"
)

// Component names attached to child loggers.
const (
	ComponentConverter = "converter"
	ComponentRates     = "rates"
	ComponentHistory   = "history"
	ComponentServer    = "server"
	ComponentWatch     = "watch"
)

type ctxKey struct{}

// Setup creates the process logger on stderr and installs it as the slog
// default.
func Setup(cfg *config.Config) *slog.Logger {
	return SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter is Setup with an explicit destination. Tests use it to
// capture output.
func SetupWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := slog.New(newHandler(w, cfg.LogFormat, ParseLevel(cfg.EffectiveLogLevel())))
	slog.SetDefault(logger)

	return logger
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}

	if format == config.LogFormatJSON {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

// replaceAttr renders durations (timeouts, cache TTLs, debounce intervals)
// as "1m30s" instead of nanosecond integers.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindDuration {
		return slog.String(a.Key, a.Value.Duration().String())
	}

	return a
}

// ParseLevel converts a configured level name to a slog.Level. Unknown names
// map to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops every record. Library types use it
// when the caller supplies no logger.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

// ForComponent returns the context logger tagged with component.
func ForComponent(ctx context.Context, component string) *slog.Logger {
	return FromContext(ctx).With(slog.String("component", component))
}

// Elapsed logs msg at debug level with the time since start. Use it with
// defer around calls to external collaborators:
//
//	defer logging.Elapsed(logger, "rates fetched", time.Now())
func Elapsed(logger *slog.Logger, msg string, start time.Time, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))
	logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
