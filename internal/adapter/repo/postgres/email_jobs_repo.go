package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// EmailJobRepo tracks transactional email delivery.
type EmailJobRepo struct{ Pool PgxPool }

// NewEmailJobRepo constructs an EmailJobRepo with the given pool.
func NewEmailJobRepo(p PgxPool) *EmailJobRepo { return &EmailJobRepo{Pool: p} }

// Create inserts a pending job and returns its id.
func (r *EmailJobRepo) Create(ctx domain.Context, j domain.EmailJob) (string, error) {
	ctx, span := startSpan(ctx, "email_jobs", "Create", "INSERT")
	defer span.End()
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.Status == "" {
		j.Status = domain.EmailPending
	}
	q := `INSERT INTO email_jobs (id, lead_id, recipient, subject, html, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := r.Pool.Exec(ctx, q, j.ID, nullable(j.LeadID), j.Recipient, j.Subject, j.HTML, string(j.Status), j.CreatedAt, now); err != nil {
		return "", fmt.Errorf("op=email_job.create: %w", err)
	}
	return j.ID, nil
}

// Get loads a job by id.
func (r *EmailJobRepo) Get(ctx domain.Context, id string) (domain.EmailJob, error) {
	ctx, span := startSpan(ctx, "email_jobs", "Get", "SELECT")
	defer span.End()
	q := `SELECT id, lead_id, recipient, subject, html, status, provider_id, error, attempts, created_at, updated_at
		FROM email_jobs WHERE id=$1`
	var (
		j      domain.EmailJob
		leadID *string
		status string
	)
	err := r.Pool.QueryRow(ctx, q, id).Scan(&j.ID, &leadID, &j.Recipient, &j.Subject, &j.HTML, &status,
		&j.ProviderID, &j.Error, &j.Attempts, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EmailJob{}, fmt.Errorf("op=email_job.get: %w", domain.ErrNotFound)
		}
		return domain.EmailJob{}, fmt.Errorf("op=email_job.get: %w", err)
	}
	if leadID != nil {
		j.LeadID = *leadID
	}
	j.Status = domain.EmailJobStatus(status)
	return j, nil
}

// MarkSent records a successful delivery.
func (r *EmailJobRepo) MarkSent(ctx domain.Context, id, providerID string) error {
	ctx, span := startSpan(ctx, "email_jobs", "MarkSent", "UPDATE")
	defer span.End()
	q := `UPDATE email_jobs SET status=$2, provider_id=$3, error='', attempts=attempts+1, updated_at=$4 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, string(domain.EmailSent), providerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=email_job.mark_sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=email_job.mark_sent: %w", domain.ErrNotFound)
	}
	return nil
}

// MarkFailed records a failed delivery attempt.
func (r *EmailJobRepo) MarkFailed(ctx domain.Context, id, errMsg string) error {
	ctx, span := startSpan(ctx, "email_jobs", "MarkFailed", "UPDATE")
	defer span.End()
	q := `UPDATE email_jobs SET status=$2, error=$3, attempts=attempts+1, updated_at=$4 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, string(domain.EmailFailed), errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=email_job.mark_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=email_job.mark_failed: %w", domain.ErrNotFound)
	}
	return nil
}

// CountByStatus returns the number of jobs per status. Statuses without jobs
// are reported as zero.
func (r *EmailJobRepo) CountByStatus(ctx domain.Context) (map[domain.EmailJobStatus]int64, error) {
	ctx, span := startSpan(ctx, "email_jobs", "CountByStatus", "SELECT")
	defer span.End()
	out := map[domain.EmailJobStatus]int64{
		domain.EmailPending: 0,
		domain.EmailSent:    0,
		domain.EmailFailed:  0,
	}
	rows, err := r.Pool.Query(ctx, `SELECT status, COUNT(*) FROM email_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("op=email_job.count_by_status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("op=email_job.count_by_status: %w", err)
		}
		out[domain.EmailJobStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=email_job.count_by_status: %w", err)
	}
	return out, nil
}
