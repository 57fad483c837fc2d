// Package observability carries request-scoped logging state and wraps
// outbound calls with spans and metrics.
package observability

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

type requestIDKey struct{}

// ContextWithLogger attaches lg to ctx. A nil logger leaves ctx untouched.
func ContextWithLogger(ctx context.Context, lg *slog.Logger) context.Context {
	if ctx == nil || lg == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, lg)
}

// LoggerFromContext returns the request logger or slog.Default.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if lg, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && lg != nil {
		return lg
	}
	return slog.Default()
}

// ContextWithRequestID stores the originating request id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the stored request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}

// Detach returns a context that keeps the values of ctx (logger, request id,
// span) but is never cancelled with it. Work that must finish after the
// client disconnects runs on a detached context.
func Detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
