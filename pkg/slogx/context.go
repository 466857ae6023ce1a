package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached to ctx or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// Scoped derives a logger from base carrying args, attaches it to ctx and
// returns both. A nil base falls back to the logger already in ctx.
func Scoped(ctx context.Context, base *slog.Logger, args ...any) (context.Context, *slog.Logger) {
	if base == nil {
		base = FromContext(ctx)
	}
	logger := base.With(args...)
	return WithContext(ctx, logger), logger
}
