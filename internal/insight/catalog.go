package insight

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

// charactersPerResult is how many characters every result carries.
const charactersPerResult = 5

// ScoreRange bounds the match scores of a category.
type ScoreRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Mid is the floored midpoint of the range.
func (r ScoreRange) Mid() int { return (r.Min + r.Max) / 2 }

// Guidance steers character generation for a category.
type Guidance struct {
	EntityType         string   `yaml:"entity_type"`
	RoleExamples       []string `yaml:"role_examples"`
	FocusAreas         string   `yaml:"focus_areas"`
	MatchContext       string   `yaml:"match_context"`
	DiversityDimension string   `yaml:"diversity_dimension"`
}

type fallbackAnalysis struct {
	OverallVibe string   `yaml:"overall_vibe"`
	Insights    []string `yaml:"insights"`
}

// CategoryTemplate is the static material for one category.
type CategoryTemplate struct {
	ScoreRange       ScoreRange       `yaml:"score_range"`
	Guidance         Guidance         `yaml:"guidance"`
	Names            []string         `yaml:"names"`
	Roles            []string         `yaml:"roles"`
	AvatarColors     []string         `yaml:"avatar_colors"`
	Alignment        [][]string       `yaml:"alignment"`
	Challenges       [][]string       `yaml:"challenges"`
	FallbackAnalysis fallbackAnalysis `yaml:"fallback_analysis"`
}

// AvatarColor returns the color for the i-th character.
func (t CategoryTemplate) AvatarColor(i int) string {
	return t.AvatarColors[i%len(t.AvatarColors)]
}

func (t CategoryTemplate) validate() error {
	switch {
	case t.ScoreRange.Min >= t.ScoreRange.Max:
		return fmt.Errorf("score range %d..%d is empty", t.ScoreRange.Min, t.ScoreRange.Max)
	case len(t.Names) < charactersPerResult, len(t.Roles) < charactersPerResult:
		return fmt.Errorf("need at least %d names and roles", charactersPerResult)
	case len(t.AvatarColors) == 0:
		return fmt.Errorf("no avatar colors")
	case len(t.Alignment) < charactersPerResult, len(t.Challenges) < charactersPerResult:
		return fmt.Errorf("need at least %d alignment and challenge sets", charactersPerResult)
	case len(t.Guidance.RoleExamples) == 0:
		return fmt.Errorf("no role examples")
	case t.FallbackAnalysis.OverallVibe == "" || len(t.FallbackAnalysis.Insights) == 0:
		return fmt.Errorf("fallback analysis is incomplete")
	}
	for i, a := range t.Alignment {
		if len(a) != 3 {
			return fmt.Errorf("alignment set %d has %d entries, want 3", i, len(a))
		}
	}
	for i, c := range t.Challenges {
		if len(c) != 2 {
			return fmt.Errorf("challenge set %d has %d entries, want 2", i, len(c))
		}
	}
	return nil
}

// Catalog maps each category to its template.
type Catalog map[domain.Category]CategoryTemplate

// ParseCatalog decodes and validates a YAML catalog. Every known category
// must be present.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("op=insight.ParseCatalog: %w", err)
	}
	for _, cat := range domain.Categories() {
		t, ok := c[cat]
		if !ok {
			return nil, fmt.Errorf("op=insight.ParseCatalog: missing category %q", cat)
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("op=insight.ParseCatalog: %s: %w", cat, err)
		}
	}
	return c, nil
}

var defaultCatalog = sync.OnceValues(func() (Catalog, error) {
	return ParseCatalog(catalogYAML)
})

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (Catalog, error) { return defaultCatalog() }
