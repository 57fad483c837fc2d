package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	obsmetrics "github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
)

func TestExternalCall_RecordsHTTPMetrics(t *testing.T) {
	call := NewExternalCall(CallKindHTTP, "test-upstream", time.Second)

	before := testutil.ToFloat64(obsmetrics.ExternalCallsTotal.WithLabelValues("test-upstream", "get", "success"))
	require.NoError(t, call.Do(context.Background(), "get", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	}))
	after := testutil.ToFloat64(obsmetrics.ExternalCallsTotal.WithLabelValues("test-upstream", "get", "success"))
	assert.Equal(t, before+1, after)
}

func TestExternalCall_PropagatesErrorAndRecordsAI(t *testing.T) {
	call := NewExternalCall(CallKindAI, "test-llm", 0)
	boom := errors.New("boom")

	before := testutil.ToFloat64(obsmetrics.AIRequestsTotal.WithLabelValues("test-llm", "generate", "error"))
	err := call.Do(context.Background(), "generate", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)
	after := testutil.ToFloat64(obsmetrics.AIRequestsTotal.WithLabelValues("test-llm", "generate", "error"))
	assert.Equal(t, before+1, after)
}

func TestExternalCall_Timeout(t *testing.T) {
	call := NewExternalCall(CallKindHTTP, "slow-upstream", 5*time.Millisecond)
	err := call.Do(context.Background(), "get", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
