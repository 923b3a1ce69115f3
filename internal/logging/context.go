package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey string

const sourceKey contextKey = "source"

// WithSource tags ctx with the data source being viewed or searched.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// GetSource returns the source stored by WithSource, or "".
func GetSource(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey).(string); ok {
		return s
	}
	return ""
}

// ContextHook adds the source from the event context.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}
	if source := GetSource(ctx); source != "" {
		e.Str("source", source)
	}
}
