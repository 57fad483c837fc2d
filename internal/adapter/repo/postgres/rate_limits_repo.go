package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// RateLimitRepo is a fixed-window limiter backed by the rate_limits table.
type RateLimitRepo struct {
	Pool PgxPool
	now  func() time.Time
}

// NewRateLimitRepo constructs a RateLimitRepo with the given pool.
func NewRateLimitRepo(p PgxPool) *RateLimitRepo {
	return &RateLimitRepo{Pool: p, now: time.Now}
}

// Check counts one request for identifier on endpoint. The latest window that
// started within the last window duration is reused; otherwise a new one opens.
func (r *RateLimitRepo) Check(ctx domain.Context, identifier, endpoint string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	ctx, span := startSpan(ctx, "rate_limits", "Check", "SELECT")
	defer span.End()
	now := r.now().UTC()

	var (
		id          string
		count       int
		windowStart time.Time
	)
	err := r.Pool.QueryRow(ctx,
		`SELECT id, request_count, window_start FROM rate_limits
		WHERE identifier=$1 AND endpoint=$2 AND window_start >= $3
		ORDER BY window_start DESC LIMIT 1`,
		identifier, endpoint, now.Add(-window)).Scan(&id, &count, &windowStart)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := r.Pool.Exec(ctx,
			`INSERT INTO rate_limits (id, identifier, endpoint, request_count, window_start) VALUES ($1,$2,$3,1,$4)`,
			uuid.New().String(), identifier, endpoint, now); err != nil {
			return domain.RateLimitDecision{}, fmt.Errorf("op=rate_limit.check: insert: %w", err)
		}
		return domain.RateLimitDecision{Allowed: true, Remaining: max(limit-1, 0), ResetAt: now.Add(window)}, nil
	case err != nil:
		return domain.RateLimitDecision{}, fmt.Errorf("op=rate_limit.check: %w", err)
	}

	resetAt := windowStart.Add(window)
	if count >= limit {
		return domain.RateLimitDecision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	if _, err := r.Pool.Exec(ctx, `UPDATE rate_limits SET request_count=$2 WHERE id=$1`, id, count+1); err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("op=rate_limit.check: update: %w", err)
	}
	return domain.RateLimitDecision{Allowed: true, Remaining: max(limit-count-1, 0), ResetAt: resetAt}, nil
}

// Purge deletes windows that started before cutoff.
func (r *RateLimitRepo) Purge(ctx domain.Context, cutoff time.Time) (int64, error) {
	ctx, span := startSpan(ctx, "rate_limits", "Purge", "DELETE")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("op=rate_limit.purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
