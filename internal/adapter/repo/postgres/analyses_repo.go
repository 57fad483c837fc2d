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

// AnalysisRepo persists chat analyses keyed by share URL hash and category.
type AnalysisRepo struct{ Pool PgxPool }

// NewAnalysisRepo constructs an AnalysisRepo with the given pool.
func NewAnalysisRepo(p PgxPool) *AnalysisRepo { return &AnalysisRepo{Pool: p} }

// FindCached returns the stored analysis for hash and category. Rows without
// generated characters are treated as missing.
func (r *AnalysisRepo) FindCached(ctx domain.Context, shareURLHash string, category domain.Category) (domain.ChatAnalysis, error) {
	ctx, span := startSpan(ctx, "chat_analyses", "FindCached", "SELECT")
	defer span.End()
	q := `SELECT id, share_url_hash, category, personality_summary, traits, generated_characters,
		completeness_rating, message_count, used_fallback_templates, processing_time_ms,
		character_generation_time_ms, created_at
		FROM chat_analyses
		WHERE share_url_hash=$1 AND category=$2 AND generated_characters IS NOT NULL`
	var (
		a          domain.ChatAnalysis
		cat        string
		traits     []byte
		characters []byte
		rating     *int
	)
	err := r.Pool.QueryRow(ctx, q, shareURLHash, string(category)).Scan(
		&a.ID, &a.ShareURLHash, &cat, &a.PersonalitySummary, &traits, &characters,
		&rating, &a.MessageCount, &a.UsedFallbackTemplates, &a.ProcessingTimeMs,
		&a.CharacterGenerationTimeMs, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ChatAnalysis{}, fmt.Errorf("op=analysis.find_cached: %w", domain.ErrNotFound)
		}
		return domain.ChatAnalysis{}, fmt.Errorf("op=analysis.find_cached: %w", err)
	}
	a.Category = domain.Category(cat)
	a.CompletenessRating = rating
	if err := json.Unmarshal(traits, &a.Traits); err != nil {
		return domain.ChatAnalysis{}, fmt.Errorf("op=analysis.find_cached: traits: %w", err)
	}
	if err := json.Unmarshal(characters, &a.Characters); err != nil {
		return domain.ChatAnalysis{}, fmt.Errorf("op=analysis.find_cached: characters: %w", err)
	}
	if len(a.Characters) == 0 {
		return domain.ChatAnalysis{}, fmt.Errorf("op=analysis.find_cached: %w", domain.ErrNotFound)
	}
	return a, nil
}

// Upsert inserts a or replaces the row with the same hash and category. It
// returns the id of the stored row.
func (r *AnalysisRepo) Upsert(ctx domain.Context, a domain.ChatAnalysis) (string, error) {
	ctx, span := startSpan(ctx, "chat_analyses", "Upsert", "INSERT")
	defer span.End()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Traits == nil {
		a.Traits = []string{}
	}
	traits, err := json.Marshal(a.Traits)
	if err != nil {
		return "", fmt.Errorf("op=analysis.upsert: %w", err)
	}
	var characters []byte
	if len(a.Characters) > 0 {
		if characters, err = json.Marshal(a.Characters); err != nil {
			return "", fmt.Errorf("op=analysis.upsert: %w", err)
		}
	}
	q := `INSERT INTO chat_analyses (id, share_url_hash, category, personality_summary, traits,
		generated_characters, completeness_rating, message_count, used_fallback_templates,
		processing_time_ms, character_generation_time_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (share_url_hash, category) DO UPDATE SET
			personality_summary=EXCLUDED.personality_summary,
			traits=EXCLUDED.traits,
			generated_characters=EXCLUDED.generated_characters,
			completeness_rating=EXCLUDED.completeness_rating,
			message_count=EXCLUDED.message_count,
			used_fallback_templates=EXCLUDED.used_fallback_templates,
			processing_time_ms=EXCLUDED.processing_time_ms,
			character_generation_time_ms=EXCLUDED.character_generation_time_ms
		RETURNING id`
	var id string
	if err := r.Pool.QueryRow(ctx, q,
		a.ID, a.ShareURLHash, string(a.Category), a.PersonalitySummary, traits,
		characters, a.CompletenessRating, a.MessageCount, a.UsedFallbackTemplates,
		a.ProcessingTimeMs, a.CharacterGenerationTimeMs, a.CreatedAt,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("op=analysis.upsert: %w", err)
	}
	return id, nil
}

// Count returns the number of stored analyses.
func (r *AnalysisRepo) Count(ctx domain.Context) (int64, error) {
	ctx, span := startSpan(ctx, "chat_analyses", "Count", "SELECT")
	defer span.End()
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=analysis.count: %w", err)
	}
	return n, nil
}
