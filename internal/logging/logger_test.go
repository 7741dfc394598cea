package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/labstack/gommon/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", "warn")

	logger.Info("dropped")
	logger.Warn("kept", slog.Int("rows", 3))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(3), entry["rows"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "text", "debug").Debug("hello", slog.String("component", "loader"))

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "component=loader")
}

func TestColoredText(t *testing.T) {
	palette := color.New()
	palette.Enable()
	red := strings.TrimSuffix(palette.Red(""), "\x1b[0m")
	green := strings.TrimSuffix(palette.Green(""), "\x1b[0m")

	var buf bytes.Buffer
	logger := newLogger(&buf, "text", "debug", palette).With(slog.String("component", "api"))
	logger.Error("failed")
	logger.Info("ready")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], red), lines[0])
	assert.Contains(t, lines[0], "msg=failed")
	assert.Contains(t, lines[0], "component=api")
	assert.True(t, strings.HasSuffix(lines[0], "\x1b[0m"))
	assert.True(t, strings.HasPrefix(lines[1], green), lines[1])
	assert.NotContains(t, buf.String(), `\x1b`)
}

func TestPlainTextHasNoEscapes(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "text", "info").Warn("slow")

	assert.Contains(t, buf.String(), "level=WARN")
	assert.NotContains(t, buf.String(), "\x1b[")
}
