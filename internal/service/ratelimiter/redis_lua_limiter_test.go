package ratelimiter

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLuaLimiter(t *testing.T) (*RedisLuaLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	limiter := NewRedisLuaLimiter(rdb)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, mr
}

func TestNewRedisLuaLimiter_NilClient(t *testing.T) {
	assert.Nil(t, NewRedisLuaLimiter(nil))
}

func TestCheck_AllowsUpToLimit(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestRedisLuaLimiter(t)
	now := limiter.now()

	for i, wantRemaining := range []int{2, 1, 0} {
		d, err := limiter.Check(ctx, "1.2.3.4", "/api/analyze-chat", 3, time.Hour)
		require.NoError(t, err, "call %d", i)
		assert.True(t, d.Allowed, "call %d", i)
		assert.Equal(t, wantRemaining, d.Remaining, "call %d", i)
		assert.Equal(t, now.Add(time.Hour), d.ResetAt, "call %d", i)
	}

	d, err := limiter.Check(ctx, "1.2.3.4", "/api/analyze-chat", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, now.Add(time.Hour), d.ResetAt)
}

func TestCheck_RejectedRequestsDoNotCount(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newTestRedisLuaLimiter(t)

	for i := 0; i < 5; i++ {
		_, err := limiter.Check(ctx, "ip", "/x", 2, time.Minute)
		require.NoError(t, err)
	}
	got, err := mr.Get("rate:/x:ip")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestCheck_WindowExpires(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newTestRedisLuaLimiter(t)

	for i := 0; i < 3; i++ {
		_, err := limiter.Check(ctx, "ip", "/api/analyze-chat", 3, time.Hour)
		require.NoError(t, err)
	}
	d, err := limiter.Check(ctx, "ip", "/api/analyze-chat", 3, time.Hour)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	mr.FastForward(time.Hour + time.Second)

	d, err = limiter.Check(ctx, "ip", "/api/analyze-chat", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
}

func TestCheck_IdentifiersAreIndependent(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestRedisLuaLimiter(t)

	d, err := limiter.Check(ctx, "a", "/x", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Check(ctx, "b", "/x", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Check(ctx, "a", "/x", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestCheck_RedisDown(t *testing.T) {
	limiter, mr := newTestRedisLuaLimiter(t)
	mr.Close()

	_, err := limiter.Check(context.Background(), "ip", "/x", 3, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=ratelimiter.Check")
}

func TestCheck_ZeroLimitDenies(t *testing.T) {
	limiter, _ := newTestRedisLuaLimiter(t)
	d, err := limiter.Check(context.Background(), "ip", "/x", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
