package observability

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoggerRoundTrip(t *testing.T) {
	lg := slog.New(slog.DiscardHandler)
	ctx := ContextWithLogger(context.Background(), lg)
	assert.Same(t, lg, LoggerFromContext(ctx))

	base := context.Background()
	assert.Equal(t, base, ContextWithLogger(base, nil))
	assert.Same(t, slog.Default(), LoggerFromContext(base))
	//nolint:staticcheck // nil context is handled on purpose
	assert.Same(t, slog.Default(), LoggerFromContext(nil))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "01HX")
	assert.Equal(t, "01HX", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))

	base := context.Background()
	assert.Equal(t, base, ContextWithRequestID(base, ""))
}

func TestDetach_KeepsValuesDropsCancel(t *testing.T) {
	parent, cancel := context.WithTimeout(ContextWithRequestID(context.Background(), "rid-1"), time.Hour)
	detached := Detach(parent)
	cancel()

	assert.Error(t, parent.Err())
	assert.NoError(t, detached.Err())
	assert.Equal(t, "rid-1", RequestIDFromContext(detached))
	_, hasDeadline := detached.Deadline()
	assert.False(t, hasDeadline)
}
