package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// CleanupService handles data retention and cleanup
type CleanupService struct {
	Pool          PgxPool
	RetentionDays int
	now           func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(pool PgxPool, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &CleanupService{Pool: pool, RetentionDays: retentionDays, now: time.Now}
}

// CleanupOldData removes expired rate-limit windows and finished email jobs
// older than the retention period. Pending jobs are never removed.
func (s *CleanupService) CleanupOldData(ctx context.Context) error {
	cutoff := s.now().UTC().AddDate(0, 0, -s.RetentionDays)

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=cleanup.begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	windows, err := tx.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("op=cleanup.rate_limits: %w", err)
	}
	jobs, err := tx.Exec(ctx, `DELETE FROM email_jobs WHERE status IN ('sent', 'failed') AND updated_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("op=cleanup.email_jobs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=cleanup.commit: %w", err)
	}

	slog.Info("data cleanup completed",
		slog.Int64("deleted_rate_limit_windows", windows.RowsAffected()),
		slog.Int64("deleted_email_jobs", jobs.RowsAffected()),
		slog.Time("cutoff", cutoff),
	)
	return nil
}

// RunPeriodic starts a periodic cleanup job
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.CleanupOldData(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if err := s.CleanupOldData(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}
