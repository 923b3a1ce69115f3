// Package logging configures the zerolog logger used across pgrid.
//
// The interactive viewer owns the terminal, so logs always go to a file.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger that writes JSON to file, appending.
// An empty file or the "disabled" level yields a no-op logger.
func New(level string, file string) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), closer, err
	}
	if lvl == zerolog.Disabled || file == "" {
		return zerolog.Nop(), closer, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return zerolog.Nop(), closer, fmt.Errorf("create logs dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), closer, err
	}
	closer = func() { _ = f.Close() }

	return NewWriter(lvl, f), closer, nil
}

// NewWriter builds a logger over an arbitrary writer.
func NewWriter(lvl zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Hook(ContextHook{}).
		With().
		Timestamp().
		Logger().
		Level(lvl)
}

// SetGlobal installs l as the process-wide logger.
func SetGlobal(l zerolog.Logger) {
	log.Logger = l
	zerolog.SetGlobalLevel(l.GetLevel())
}

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ComponentCtx is Component bound to ctx, so ContextHook tags every event
// with the source stored in ctx.
func ComponentCtx(ctx context.Context, name string) zerolog.Logger {
	return log.With().Str("cmp", name).Ctx(ctx).Logger()
}
