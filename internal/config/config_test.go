package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 3, cfg.AnalyzeLimit)
	assert.Equal(t, time.Hour, cfg.AnalyzeLimitWindow)
	assert.Equal(t, "postgres", cfg.RateLimitBackend)
	assert.Equal(t, 140*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.False(t, cfg.EmailEnabled())
	assert.False(t, cfg.QueueEnabled())
	assert.False(t, cfg.AdminEnabled())
}

func Test_Load_AdminAndQueue(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD_HASH", "argon2id$3$65536$2$c2FsdA$aGFzaA")
	t.Setenv("KAFKA_BROKERS", "redpanda:9092,redpanda-2:9092")
	t.Setenv("RESEND_API_KEY", "re_test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AdminEnabled())
	assert.True(t, cfg.QueueEnabled())
	assert.True(t, cfg.EmailEnabled())
	assert.Equal(t, []string{"redpanda:9092", "redpanda-2:9092"}, cfg.KafkaBrokers)
}

func Test_Load_ErrorOnBadDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=config.Load")
}

func Test_Load_RateLimitBackend(t *testing.T) {
	t.Setenv("RATE_LIMIT_BACKEND", "memcached")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	_, err = Load()
	require.Error(t, err, "redis backend needs REDIS_URL")

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.RateLimitBackend)
}

func Test_AIRetryPolicy(t *testing.T) {
	t.Setenv("AI_BACKOFF_DELAYS", "1s,3s")
	t.Setenv("AI_MAX_ATTEMPTS", "2")
	cfg, err := Load()
	require.NoError(t, err)
	p := cfg.AIRetryPolicy()
	assert.Equal(t, 2, p.MaxAttempts)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, p.Delays)
	assert.Equal(t, 30*time.Second, p.PerAttemptTimeout)
}

func Test_EmailRetryPolicy(t *testing.T) {
	cfg := Config{EmailMaxRetries: 4, EmailInitialDelay: 10 * time.Second, EmailMaxDelay: 30 * time.Second, EmailTimeout: 5 * time.Second}
	p := cfg.EmailRetryPolicy()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second, 30 * time.Second}, p.Delays)
	assert.Equal(t, 5*time.Second, p.PerAttemptTimeout)

	none := Config{}.EmailRetryPolicy()
	assert.Equal(t, 1, none.MaxAttempts)
	assert.Empty(t, none.Delays)
}
