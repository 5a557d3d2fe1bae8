package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  struct {
			level slog.Level
			ok    bool
		}
	}{
		{name: "debug", input: "debug", want: struct {
			level slog.Level
			ok    bool
		}{slog.LevelDebug, true}},
		{name: "mixed case warn", input: " WARN ", want: struct {
			level slog.Level
			ok    bool
		}{slog.LevelWarn, true}},
		{name: "error", input: "error", want: struct {
			level slog.Level
			ok    bool
		}{slog.LevelError, true}},
		{name: "unknown falls back to info", input: "verbose", want: struct {
			level slog.Level
			ok    bool
		}{slog.LevelInfo, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.want.level, level)
			assert.Equal(t, tt.want.ok, ok)
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := New("warn", &buf)

	log.Info("hidden message")
	log.Warn("visible message", "task_id", "42")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "task_id")
	assert.Same(t, log, slog.Default())
}
