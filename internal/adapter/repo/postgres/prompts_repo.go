package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

const promptColumns = `id, key, version, content, metadata, is_active, usage_count, success_count, created_at`

// PromptRepo stores versioned prompt templates.
type PromptRepo struct{ Pool PgxPool }

// NewPromptRepo constructs a PromptRepo with the given pool.
func NewPromptRepo(p PgxPool) *PromptRepo { return &PromptRepo{Pool: p} }

func scanPrompt(row pgx.Row) (domain.Prompt, error) {
	var p domain.Prompt
	var meta []byte
	if err := row.Scan(&p.ID, &p.Key, &p.Version, &p.Content, &meta, &p.IsActive, &p.UsageCount, &p.SuccessCount, &p.CreatedAt); err != nil {
		return domain.Prompt{}, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return domain.Prompt{}, fmt.Errorf("metadata: %w", err)
		}
	}
	return p, nil
}

// GetActive loads the active version of key.
func (r *PromptRepo) GetActive(ctx domain.Context, key string) (domain.Prompt, error) {
	ctx, span := startSpan(ctx, "prompts", "GetActive", "SELECT")
	defer span.End()
	q := `SELECT ` + promptColumns + ` FROM prompts WHERE key=$1 AND is_active ORDER BY version DESC LIMIT 1`
	p, err := scanPrompt(r.Pool.QueryRow(ctx, q, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Prompt{}, fmt.Errorf("op=prompt.get_active: %w", domain.ErrNotFound)
		}
		return domain.Prompt{}, fmt.Errorf("op=prompt.get_active: %w", err)
	}
	return p, nil
}

// GetActiveMany loads the active versions of keys. Missing keys are absent from the map.
func (r *PromptRepo) GetActiveMany(ctx domain.Context, keys []string) (map[string]domain.Prompt, error) {
	ctx, span := startSpan(ctx, "prompts", "GetActiveMany", "SELECT")
	defer span.End()
	q := `SELECT ` + promptColumns + ` FROM prompts WHERE key = ANY($1) AND is_active`
	list, err := r.list(ctx, q, keys)
	if err != nil {
		return nil, fmt.Errorf("op=prompt.get_active_many: %w", err)
	}
	out := make(map[string]domain.Prompt, len(list))
	for _, p := range list {
		out[p.Key] = p
	}
	return out, nil
}

// ListByCategory returns active prompts whose metadata category matches.
func (r *PromptRepo) ListByCategory(ctx domain.Context, category string) ([]domain.Prompt, error) {
	ctx, span := startSpan(ctx, "prompts", "ListByCategory", "SELECT")
	defer span.End()
	q := `SELECT ` + promptColumns + ` FROM prompts WHERE is_active AND metadata @> jsonb_build_object('category', $1::text) ORDER BY key`
	list, err := r.list(ctx, q, category)
	if err != nil {
		return nil, fmt.Errorf("op=prompt.list_by_category: %w", err)
	}
	return list, nil
}

func (r *PromptRepo) list(ctx domain.Context, q string, args ...any) ([]domain.Prompt, error) {
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Publish stores p as the next version of p.Key and makes it the only
// active one.
func (r *PromptRepo) Publish(ctx domain.Context, p domain.Prompt) (domain.Prompt, error) {
	ctx, span := startSpan(ctx, "prompts", "Publish", "INSERT")
	defer span.End()
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("op=prompt.publish: %w", err)
	}

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("op=prompt.publish: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, p.Key); err != nil {
		return domain.Prompt{}, fmt.Errorf("op=prompt.publish: lock: %w", err)
	}
	var current int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM prompts WHERE key=$1`, p.Key).Scan(&current); err != nil {
		return domain.Prompt{}, fmt.Errorf("op=prompt.publish: version: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE prompts SET is_active=false WHERE key=$1 AND is_active`, p.Key); err != nil {
		return domain.Prompt{}, fmt.Errorf("op=prompt.publish: deactivate: %w", err)
	}
	p.ID = uuid.New().String()
	p.Version = current + 1
	p.IsActive = true
	p.UsageCount, p.SuccessCount = 0, 0
	p.CreatedAt = time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`INSERT INTO prompts (id, key, version, content, metadata, is_active, created_at) VALUES ($1,$2,$3,$4,$5,true,$6)`,
		p.ID, p.Key, p.Version, p.Content, meta, p.CreatedAt); err != nil {
		return domain.Prompt{}, fmt.Errorf("op=prompt.publish: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Prompt{}, fmt.Errorf("op=prompt.publish: commit: %w", err)
	}
	return p, nil
}

// IncrementUsage bumps the usage counters of a prompt.
func (r *PromptRepo) IncrementUsage(ctx domain.Context, promptID string, success bool) error {
	ctx, span := startSpan(ctx, "prompts", "IncrementUsage", "UPDATE")
	defer span.End()
	if _, err := r.Pool.Exec(ctx, `SELECT increment_prompt_usage($1, $2)`, promptID, success); err != nil {
		return fmt.Errorf("op=prompt.increment_usage: %w", err)
	}
	return nil
}
