package httpserver

import (
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	obsctx "github.com/fairyhunter13/authentyc-landing/internal/observability"
)

// Recoverer ensures panics don't crash the server and responds 500 safely.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					LoggerFrom(r).Error("panic recovered", slog.Any("recover", rec))
					writePublicError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID injects a request id and correlates with tracing ids.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = newReqID()
				r.Header.Set("X-Request-Id", reqID)
			}
			spanCtx := trace.SpanContextFromContext(r.Context())
			logger := slog.Default().With(
				slog.String("request_id", reqID),
				slog.String("trace_id", spanCtx.TraceID().String()),
				slog.String("span_id", spanCtx.SpanID().String()),
			)
			ctx := obsctx.ContextWithLogger(r.Context(), logger)
			ctx = obsctx.ContextWithRequestID(ctx, reqID)
			w.Header().Set("X-Request-Id", reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TimeoutMiddleware adds a deadline to the request context.
func TimeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, `{"error":"Request timed out"}`)
	}
}

// SecurityHeaders adds strict security headers suitable for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		// HSTS is set at the edge
		next.ServeHTTP(w, r)
	})
}

// LoggerFrom returns the request-scoped logger or the default logger.
func LoggerFrom(r *http.Request) *slog.Logger {
	return obsctx.LoggerFromContext(r.Context())
}

// ClientIdentifier names the caller for rate limiting: the raw
// X-Forwarded-For value, then X-Real-IP, then "unknown".
func ClientIdentifier(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		return v
	}
	return "unknown"
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // ULID entropy only.
)

func newReqID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulidEntropy)
	if err != nil {
		return time.Now().UTC().Format("20060102150405.000000000")
	}
	return id.String()
}

// AccessLog logs one line per request, at a level derived from the status.
func AccessLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			dur := time.Since(start)

			// same route label as the prometheus middleware
			var route string
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			if route == "" {
				route = r.URL.Path
			}
			statusCode := ww.Status()
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", statusCode),
				slog.Duration("duration_ms", dur),
				slog.Int("bytes", ww.BytesWritten()),
			}
			lg := LoggerFrom(r)
			switch {
			case statusCode >= 500:
				lg.LogAttrs(r.Context(), slog.LevelError, "http_access", attrs...)
			case statusCode >= 400:
				lg.LogAttrs(r.Context(), slog.LevelWarn, "http_access", attrs...)
			default:
				lg.LogAttrs(r.Context(), slog.LevelInfo, "http_access", attrs...)
			}
		})
	}
}
