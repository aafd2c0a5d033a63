package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestNew_JSONFormatInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "production",
		Level:       slog.LevelInfo,
	})

	log.Info("hello", "key", "value")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.True(t, strings.HasPrefix(out, "{"), "production logs should be JSON: %s", out)
	assert.Contains(t, out, `"key":"value"`)
}

func TestPrettyHandler_IncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "pretty",
		Level:  slog.LevelDebug,
	})

	log.Debug("importing", "rows", 42)

	out := buf.String()
	assert.Contains(t, out, "importing")
	assert.Contains(t, out, "rows=42")
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "pretty",
		Level:  slog.LevelWarn,
	})

	log.Info("should not appear")
	log.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}
