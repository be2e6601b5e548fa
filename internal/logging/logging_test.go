package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convertkit/unitconv/internal/config"
)

func TestSetup_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{config.LogFormatText, "msg=conversion"},
		{config.LogFormatJSON, `"msg":"conversion"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer

			logger := SetupWithWriter(&config.Config{LogLevel: "info", LogFormat: tt.format}, &buf)
			require.NotNil(t, logger)

			logger.Info("conversion")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestSetup_SetsDefault(t *testing.T) {
	logger := Setup(&config.Config{LogLevel: "info", LogFormat: "text"})
	assert.Equal(t, logger.Handler(), slog.Default().Handler())
}

func TestSetup_QuietSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupWithWriter(&config.Config{LogLevel: "debug", LogFormat: "text", Quiet: true}, &buf)
	logger.Info("rates reloaded")
	logger.Error("rate service down")

	assert.NotContains(t, buf.String(), "rates reloaded")
	assert.Contains(t, buf.String(), "rate service down")
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupWithWriter(&config.Config{LogLevel: "info", LogFormat: "text"}, &buf)
	logger.Debug("dispatch")

	assert.Empty(t, buf.String())
}

func TestSetup_DurationsAreHumanReadable(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupWithWriter(&config.Config{LogLevel: "info", LogFormat: "json"}, &buf)
	logger.Info("cache configured", slog.Duration("ttl", 90*time.Second))

	assert.Contains(t, buf.String(), `"ttl":"1m30s"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

// ---------------------------------------------------------------------------
// Context propagation
// ---------------------------------------------------------------------------

func TestContext_RoundTrip(t *testing.T) {
	logger := Discard()
	ctx := NewContext(context.Background(), logger)
	assert.Equal(t, logger, FromContext(ctx))
}

func TestFromContext_FallbackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestForComponent(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newHandler(&buf, config.LogFormatJSON, slog.LevelInfo))
	ctx := NewContext(context.Background(), logger)

	ForComponent(ctx, ComponentRates).Info("fetched")

	assert.Contains(t, buf.String(), `"component":"rates"`)
}

func TestElapsed(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newHandler(&buf, config.LogFormatText, slog.LevelDebug))
	Elapsed(logger, "rates fetched", time.Now().Add(-time.Second), slog.String("url", "http://rates"))

	out := buf.String()
	assert.Contains(t, out, "rates fetched")
	assert.Contains(t, out, "url=http://rates")
	assert.Contains(t, out, "elapsed=")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
