package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// PromptSeed is one entry of the prompt seed file.
type PromptSeed struct {
	Key          string   `yaml:"key"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Type         string   `yaml:"type"`
	Placeholders []string `yaml:"placeholders"`
	Content      string   `yaml:"content"`
}

type promptSeedFile struct {
	Prompts []PromptSeed `yaml:"prompts"`
}

// ParsePromptSeeds decodes a seed document. Entries need a key and content.
func ParsePromptSeeds(b []byte) ([]PromptSeed, error) {
	var doc promptSeedFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("op=app.ParsePromptSeeds: %w", err)
	}
	for i, p := range doc.Prompts {
		if strings.TrimSpace(p.Key) == "" || strings.TrimSpace(p.Content) == "" {
			return nil, fmt.Errorf("op=app.ParsePromptSeeds: entry %d: key and content required", i)
		}
	}
	return doc.Prompts, nil
}

// SeedPrompts publishes every seed whose key has no active version yet.
// Existing prompts are never overwritten. It returns the number published.
func SeedPrompts(ctx context.Context, repo domain.PromptRepository, seeds []PromptSeed) (int, error) {
	published := 0
	for _, s := range seeds {
		_, err := repo.GetActive(ctx, s.Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return published, fmt.Errorf("op=app.SeedPrompts: %s: %w", s.Key, err)
		}
		p, err := repo.Publish(ctx, domain.Prompt{
			Key:     s.Key,
			Content: strings.TrimSpace(s.Content),
			Metadata: domain.PromptMetadata{
				Title:        s.Title,
				Description:  s.Description,
				Category:     s.Category,
				Type:         s.Type,
				Placeholders: s.Placeholders,
			},
		})
		if err != nil {
			return published, fmt.Errorf("op=app.SeedPrompts: %s: %w", s.Key, err)
		}
		slog.Info("prompt seeded", slog.String("key", p.Key), slog.Int("version", p.Version))
		published++
	}
	return published, nil
}

// SeedPromptsFromFile reads path and seeds it. A missing file is skipped.
func SeedPromptsFromFile(ctx context.Context, repo domain.PromptRepository, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("prompt seed file not found", slog.String("path", path))
			return 0, nil
		}
		return 0, fmt.Errorf("op=app.SeedPromptsFromFile: %w", err)
	}
	seeds, err := ParsePromptSeeds(b)
	if err != nil {
		return 0, err
	}
	return SeedPrompts(ctx, repo, seeds)
}
