package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

const uniqueViolation = "23505"

// WaitlistRepo stores waitlist leads.
type WaitlistRepo struct{ Pool PgxPool }

// NewWaitlistRepo constructs a WaitlistRepo with the given pool.
func NewWaitlistRepo(p PgxPool) *WaitlistRepo { return &WaitlistRepo{Pool: p} }

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts lead and returns its id. A duplicate email yields domain.ErrConflict.
func (r *WaitlistRepo) Create(ctx domain.Context, lead domain.WaitlistLead) (string, error) {
	ctx, span := startSpan(ctx, "waitlist_leads", "Create", "INSERT")
	defer span.End()
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO waitlist_leads (id, email, interests, other_interest_detail, has_ai_history,
		utm_source, utm_medium, utm_campaign, referrer, user_agent, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.Pool.Exec(ctx, q,
		lead.ID, lead.Email, lead.Interests, nullable(lead.OtherInterestDetail), nullable(lead.HasAIHistory),
		nullable(lead.UTMSource), nullable(lead.UTMMedium), nullable(lead.UTMCampaign),
		nullable(lead.Referrer), nullable(lead.UserAgent), lead.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", fmt.Errorf("op=waitlist.create: %w", domain.ErrConflict)
		}
		return "", fmt.Errorf("op=waitlist.create: %w", err)
	}
	return lead.ID, nil
}

// Position returns the 1-based signup position of the lead.
func (r *WaitlistRepo) Position(ctx domain.Context, leadID string) (int, error) {
	ctx, span := startSpan(ctx, "waitlist_leads", "Position", "SELECT")
	defer span.End()
	var pos int
	if err := r.Pool.QueryRow(ctx, `SELECT COALESCE(get_waitlist_position($1), 1)`, leadID).Scan(&pos); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("op=waitlist.position: %w", domain.ErrNotFound)
		}
		return 0, fmt.Errorf("op=waitlist.position: %w", err)
	}
	if pos < 1 {
		return 1, nil
	}
	return pos, nil
}

// Count returns the number of leads.
func (r *WaitlistRepo) Count(ctx domain.Context) (int64, error) {
	ctx, span := startSpan(ctx, "waitlist_leads", "Count", "SELECT")
	defer span.End()
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM waitlist_leads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=waitlist.count: %w", err)
	}
	return n, nil
}
