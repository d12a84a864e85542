package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/recrsn/mcpchat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestNew_AddsTurnID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug, true)

	ctx := WithTurnID(context.Background(), 3)
	logger.With("component", "session").InfoContext(ctx, "turn committed", "messages", 2)
	logger.ErrorContext(context.Background(), "turn failed", "err", errors.New("backend unavailable"))

	out := buf.String()
	assert.Contains(t, out, "turn committed")
	assert.Contains(t, out, "component=session")
	assert.Contains(t, out, "turn=3")
	assert.Contains(t, out, "backend unavailable")
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, true)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestTurnIDFromContext(t *testing.T) {
	_, ok := TurnIDFromContext(context.Background())
	assert.False(t, ok)

	turn, ok := TurnIDFromContext(WithTurnID(context.Background(), 7))
	assert.True(t, ok)
	assert.Equal(t, 7, turn)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mcpchat.log")
	logger, closer, err := Open(config.LogConfig{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Debug("connected to tool host", "spec", "students-server")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "connected to tool host")
}
