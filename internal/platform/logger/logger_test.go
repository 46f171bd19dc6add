package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		want  slog.Level
		known bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.name)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestNew(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	t.Run("filters below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "warn")

		l.Info("hidden")
		l.Warn("shown", "key", "value")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"msg":"shown"`)
		assert.Contains(t, out, `"key":"value"`)
		assert.Same(t, l, slog.Default())
	})

	t.Run("unknown level warns and uses info", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "loud")

		l.Debug("hidden")
		l.Info("shown")

		out := buf.String()
		assert.Contains(t, out, "invalid log level configured")
		assert.Contains(t, out, `"configured_level":"loud"`)
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"msg":"shown"`)
	})
}

func TestContextLogger(t *testing.T) {
	l, buf := NewTestLogger(t)

	ctx := WithLogger(context.Background(), l.With("trace_id", "abc"))
	FromContext(ctx).Info("from context")

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["trace_id"])
	assert.Equal(t, "from context", entries[0]["msg"])

	fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
