package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	obsctx "github.com/fairyhunter13/authentyc-landing/internal/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/transcript"
)

// PromptService reads and publishes prompt templates. It serves the
// validator (canonical prompts) and the insight generator (templates).
type PromptService struct {
	Prompts domain.PromptRepository
}

// NewPromptService constructs a PromptService.
func NewPromptService(p domain.PromptRepository) PromptService {
	return PromptService{Prompts: p}
}

// CanonicalPrompts returns the active conversation prompts in category order.
// Categories without an active prompt are skipped.
func (s PromptService) CanonicalPrompts(ctx context.Context) ([]transcript.CanonicalPrompt, error) {
	cats := domain.Categories()
	keys := make([]string, 0, len(cats))
	for _, c := range cats {
		keys = append(keys, c.ConversationPromptKey())
	}
	found, err := s.Prompts.GetActiveMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("op=prompts.canonical: %w", err)
	}
	out := make([]transcript.CanonicalPrompt, 0, len(found))
	for _, c := range cats {
		p, ok := found[c.ConversationPromptKey()]
		if !ok {
			continue
		}
		out = append(out, transcript.CanonicalPrompt{
			Category:    c.PromptCategory(),
			Title:       p.Metadata.Title,
			Text:        p.Content,
			Description: p.Metadata.Description,
		})
	}
	return out, nil
}

// ActivePrompt returns the active version of key.
func (s PromptService) ActivePrompt(ctx context.Context, key string) (domain.Prompt, error) {
	return s.Prompts.GetActive(ctx, key)
}

// RecordUsage bumps usage counters; failures are only logged.
func (s PromptService) RecordUsage(ctx context.Context, promptID string, success bool) {
	if promptID == "" {
		return
	}
	if err := s.Prompts.IncrementUsage(ctx, promptID, success); err != nil {
		obsctx.LoggerFromContext(ctx).Warn("failed to track prompt usage", slog.String("prompt_id", promptID), slog.Any("error", err))
	}
}

// ListByCategory returns the active prompts tagged with category.
func (s PromptService) ListByCategory(ctx context.Context, category string) ([]domain.Prompt, error) {
	return s.Prompts.ListByCategory(ctx, category)
}

// Publish stores content as the next active version of key.
func (s PromptService) Publish(ctx context.Context, key, content string, meta domain.PromptMetadata) (domain.Prompt, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.TrimSpace(content) == "" {
		return domain.Prompt{}, fmt.Errorf("%w: key and content required", domain.ErrInvalidArgument)
	}
	p, err := s.Prompts.Publish(ctx, domain.Prompt{Key: key, Content: content, Metadata: meta})
	if err != nil {
		return domain.Prompt{}, err
	}
	obsctx.LoggerFromContext(ctx).Info("prompt published", slog.String("key", p.Key), slog.Int("version", p.Version))
	return p, nil
}
