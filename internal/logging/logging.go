// Package logging builds the diagnostic slog logger. Diagnostics go to
// stderr or a file, never to the chat output.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/recrsn/mcpchat/internal/config"
)

const timeFormat = "2006-01-02 15:04:05.000Z07:00"

type turnKey struct{}

// WithTurnID tags ctx with the number of the turn being processed
func WithTurnID(ctx context.Context, turn int) context.Context {
	return context.WithValue(ctx, turnKey{}, turn)
}

// TurnIDFromContext returns the turn number stored by WithTurnID
func TurnIDFromContext(ctx context.Context) (int, bool) {
	turn, ok := ctx.Value(turnKey{}).(int)
	return turn, ok
}

// ParseLevel accepts debug, info, warn/warning and error
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New creates a tint logger writing to output
func New(output io.Writer, level slog.Level, noColor bool) *slog.Logger {
	handler := tint.NewHandler(output, &tint.Options{
		Level:      level,
		AddSource:  false,
		TimeFormat: timeFormat,
		NoColor:    noColor,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(&turnHandler{Handler: handler})
}

// Open creates the logger described by cfg. The returned closer releases
// the log file, if any.
func Open(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.File == "" {
		return New(os.Stderr, level, false), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return New(f, level, true), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// turnHandler adds the turn number from the context to every record
type turnHandler struct {
	slog.Handler
}

func (h *turnHandler) Handle(ctx context.Context, r slog.Record) error {
	if turn, ok := TurnIDFromContext(ctx); ok {
		r.AddAttrs(slog.Int("turn", turn))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *turnHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &turnHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *turnHandler) WithGroup(name string) slog.Handler {
	return &turnHandler{Handler: h.Handler.WithGroup(name)}
}
