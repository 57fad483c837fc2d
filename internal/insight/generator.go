// Package insight turns a validated transcript into a personality summary
// and five illustrative matches.
//
// The LLM path runs two calls (analysis, then characters) under a retry
// policy. Whatever goes wrong on that path, Run still returns a complete
// result built from the category templates and flags it as a fallback.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/ai"
	"github.com/fairyhunter13/authentyc-landing/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/retry"
)

// PromptStore supplies templates and records how they performed.
type PromptStore interface {
	// ActivePrompt returns domain.ErrNotFound when the key has no active version.
	ActivePrompt(ctx context.Context, key string) (domain.Prompt, error)
	RecordUsage(ctx context.Context, promptID string, success bool)
}

// DefaultTokenBudget bounds the rendered conversation.
const DefaultTokenBudget = 24000

// Generator produces analyses and characters.
type Generator struct {
	llm       domain.TextGenerator
	prompts   PromptStore
	catalog   Catalog
	policy    retry.Policy
	retryOpts []retry.Option
	counter   *tokencount.Counter
	budget    int
}

// Option configures a Generator.
type Option func(*Generator)

// WithPolicy overrides retry.DefaultPolicy.
func WithPolicy(p retry.Policy) Option { return func(g *Generator) { g.policy = p } }

// WithRetryOptions passes options to every retry.Do call.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(g *Generator) { g.retryOpts = append(g.retryOpts, opts...) }
}

// WithTokenBudget bounds the conversation sent for analysis.
func WithTokenBudget(tokens int) Option { return func(g *Generator) { g.budget = tokens } }

// WithCounter replaces tokencount.Default.
func WithCounter(c *tokencount.Counter) Option { return func(g *Generator) { g.counter = c } }

// WithCatalog replaces the embedded catalog.
func WithCatalog(c Catalog) Option { return func(g *Generator) { g.catalog = c } }

// NewGenerator wires a Generator. llm may be nil, in which case every
// request is served from templates. prompts may be nil to use the built-in
// templates only.
func NewGenerator(llm domain.TextGenerator, prompts PromptStore, opts ...Option) (*Generator, error) {
	g := &Generator{
		llm:     llm,
		prompts: prompts,
		policy:  retry.DefaultPolicy(),
		counter: tokencount.Default,
		budget:  DefaultTokenBudget,
	}
	for _, o := range opts {
		o(g)
	}
	if g.catalog == nil {
		c, err := DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("op=insight.NewGenerator: %w", err)
		}
		g.catalog = c
	}
	return g, nil
}

// Result is the outcome of Run.
type Result struct {
	Analysis      domain.Analysis
	Characters    []domain.Character
	UsedFallback  bool
	CharacterTime time.Duration
	Truncated     bool
}

// Run analyzes turns and generates characters. It never fails: LLM errors
// are logged and replaced by template output.
func (g *Generator) Run(ctx context.Context, category domain.Category, turns []domain.Turn, sample string) Result {
	if g.llm == nil {
		a, chars := g.Fallback(category)
		return Result{Analysis: a, Characters: chars, UsedFallback: true}
	}

	analysis, truncated, err := g.analyze(ctx, category, turns)
	if err != nil {
		slog.Warn("analysis failed, using templates",
			slog.String("category", string(category)),
			slog.Any("error", err))
		a, chars := g.Fallback(category)
		return Result{Analysis: a, Characters: chars, UsedFallback: true, Truncated: truncated}
	}

	start := time.Now()
	chars, err := g.GenerateCharacters(ctx, category, analysis, sample)
	res := Result{Analysis: analysis, Characters: chars, CharacterTime: time.Since(start), Truncated: truncated}
	if err != nil {
		slog.Warn("character generation failed, using templates",
			slog.String("category", string(category)),
			slog.Any("error", err))
		_, res.Characters = g.Fallback(category)
		res.UsedFallback = true
	}
	return res
}

// Analyze asks the model for an overall vibe and insights.
func (g *Generator) Analyze(ctx context.Context, category domain.Category, turns []domain.Turn) (domain.Analysis, error) {
	a, _, err := g.analyze(ctx, category, turns)
	return a, err
}

func (g *Generator) analyze(ctx context.Context, category domain.Category, turns []domain.Turn) (domain.Analysis, bool, error) {
	if g.llm == nil {
		return domain.Analysis{}, false, fmt.Errorf("op=insight.Analyze: %w: no text generator", domain.ErrInternal)
	}
	tmpl, promptID := g.template(ctx, AnalysisPromptKey, defaultAnalysisTemplate)

	blocks := renderTurns(turns)
	conversation, used := g.counter.Fit(blocks, "\n\n", g.budget)
	truncated := used < len(blocks) || (used == 1 && conversation != blocks[0])
	if truncated {
		slog.Info("conversation trimmed to token budget",
			slog.Int("turns", len(blocks)),
			slog.Int("kept", used),
			slog.Int("budget", g.budget))
	}

	reply, err := g.generate(ctx, buildAnalysisPrompt(tmpl, category, conversation))
	var a domain.Analysis
	if err == nil {
		a, err = parseAnalysis(reply)
	}
	g.recordUsage(ctx, promptID, err == nil)
	if err != nil {
		return domain.Analysis{}, truncated, fmt.Errorf("op=insight.Analyze: %w", err)
	}
	return a, truncated, nil
}

// GenerateCharacters asks the model for five characters matching analysis.
func (g *Generator) GenerateCharacters(ctx context.Context, category domain.Category, analysis domain.Analysis, sample string) ([]domain.Character, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("op=insight.GenerateCharacters: %w: no text generator", domain.ErrInternal)
	}
	t, ok := g.catalog[category]
	if !ok {
		return nil, fmt.Errorf("op=insight.GenerateCharacters: %w: category %q", domain.ErrInvalidArgument, category)
	}
	tmpl, promptID := g.template(ctx, CharacterPromptKey, defaultCharacterTemplate)
	prompt, err := buildCharacterPrompt(tmpl, category, t, analysis, sample)
	if err != nil {
		return nil, fmt.Errorf("op=insight.GenerateCharacters: %w", err)
	}

	reply, err := g.generate(ctx, prompt)
	var chars []domain.Character
	if err == nil {
		chars, err = parseCharacters(reply, category, t)
	}
	g.recordUsage(ctx, promptID, err == nil)
	if err != nil {
		return nil, fmt.Errorf("op=insight.GenerateCharacters: %w", err)
	}
	return chars, nil
}

// Fallback returns the fixed analysis and template characters for category.
// Output depends only on category.
func (g *Generator) Fallback(category domain.Category) (domain.Analysis, []domain.Character) {
	t, ok := g.catalog[category]
	if !ok {
		return domain.Analysis{}, nil
	}
	r := t.ScoreRange
	scores := [charactersPerResult]int{r.Max - 2, r.Max - 10, r.Mid(), r.Min + 10, r.Min + 5}
	chars := make([]domain.Character, 0, charactersPerResult)
	for i, score := range scores {
		chars = append(chars, domain.Character{
			ID:          string(category) + "-" + strconv.Itoa(i),
			Name:        t.Names[i%len(t.Names)],
			Role:        t.Roles[i%len(t.Roles)],
			AvatarColor: t.AvatarColor(i),
			MatchScore:  score,
			Alignment:   append([]string(nil), t.Alignment[i%len(t.Alignment)]...),
			Challenges:  append([]string(nil), t.Challenges[i%len(t.Challenges)]...),
			Category:    category,
		})
	}
	sortByScore(chars)
	a := domain.Analysis{
		OverallVibe: t.FallbackAnalysis.OverallVibe,
		Insights:    append([]string(nil), t.FallbackAnalysis.Insights...),
	}
	return a, chars
}

// template loads key from the store, falling back to def. The returned id
// is empty for built-in templates.
func (g *Generator) template(ctx context.Context, key, def string) (string, string) {
	if g.prompts == nil {
		return def, ""
	}
	p, err := g.prompts.ActivePrompt(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("prompt lookup failed, using built-in template",
				slog.String("key", key),
				slog.Any("error", err))
		}
		return def, ""
	}
	return p.Content, p.ID
}

func (g *Generator) recordUsage(ctx context.Context, promptID string, success bool) {
	if g.prompts == nil || promptID == "" {
		return
	}
	g.prompts.RecordUsage(ctx, promptID, success)
}

// generate calls the model under the retry policy. Blocked prompts and
// rejected requests are not retried.
func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	var reply string
	opts := append([]retry.Option{retry.WithNotify(func(attempt int, err error, wait time.Duration) {
		slog.Warn("llm attempt failed",
			slog.String("provider", g.llm.Provider()),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", wait),
			slog.Any("error", err))
	})}, g.retryOpts...)
	err := retry.Do(ctx, g.policy, func(ctx context.Context) error {
		out, err := g.llm.Generate(ctx, prompt)
		if err != nil {
			if errors.Is(err, domain.ErrUpstreamBlocked) || errors.Is(err, domain.ErrInvalidArgument) {
				return retry.Permanent(err)
			}
			return err
		}
		reply = out
		return nil
	}, opts...)
	return reply, err
}

type analysisReply struct {
	OverallVibe string   `json:"overall_vibe"`
	Insights    []string `json:"insights"`
}

func parseAnalysis(reply string) (domain.Analysis, error) {
	cleaned, err := ai.CleanJSON(reply)
	if err != nil {
		return domain.Analysis{}, err
	}
	var r analysisReply
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err)
	}
	r.OverallVibe = strings.TrimSpace(r.OverallVibe)
	insights := make([]string, 0, len(r.Insights))
	for _, in := range r.Insights {
		if in = strings.TrimSpace(in); in != "" {
			insights = append(insights, in)
		}
	}
	if r.OverallVibe == "" || len(insights) == 0 {
		return domain.Analysis{}, fmt.Errorf("%w: overall_vibe and insights are required", domain.ErrSchemaInvalid)
	}
	return domain.Analysis{OverallVibe: r.OverallVibe, Insights: insights}, nil
}

type characterReply struct {
	Characters []struct {
		Name       string   `json:"name"`
		Role       string   `json:"role"`
		MatchScore any      `json:"matchScore"`
		Alignment  []string `json:"alignment"`
		Challenges []string `json:"challenges"`
	} `json:"characters"`
}

func parseCharacters(reply string, category domain.Category, t CategoryTemplate) ([]domain.Character, error) {
	cleaned, err := ai.CleanJSON(reply)
	if err != nil {
		return nil, err
	}
	var r characterReply
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err)
	}
	if len(r.Characters) != charactersPerResult {
		return nil, fmt.Errorf("%w: expected %d characters, got %d", domain.ErrSchemaInvalid, charactersPerResult, len(r.Characters))
	}
	chars := make([]domain.Character, 0, charactersPerResult)
	for i, c := range r.Characters {
		score, isNumber := c.MatchScore.(float64)
		name, role := strings.TrimSpace(c.Name), strings.TrimSpace(c.Role)
		if name == "" || role == "" || !isNumber {
			return nil, fmt.Errorf("%w: character %d missing required fields", domain.ErrSchemaInvalid, i)
		}
		if len(c.Alignment) != 3 {
			return nil, fmt.Errorf("%w: character %d must have exactly 3 alignment points", domain.ErrSchemaInvalid, i)
		}
		if len(c.Challenges) != 2 {
			return nil, fmt.Errorf("%w: character %d must have exactly 2 challenges", domain.ErrSchemaInvalid, i)
		}
		chars = append(chars, domain.Character{
			ID:          string(category) + "-gen-" + strconv.Itoa(i),
			Name:        name,
			Role:        role,
			AvatarColor: t.AvatarColor(i),
			MatchScore:  int(math.Round(score)),
			Alignment:   c.Alignment,
			Challenges:  c.Challenges,
			Category:    category,
		})
	}
	sortByScore(chars)
	return chars, nil
}

func sortByScore(chars []domain.Character) {
	sort.SliceStable(chars, func(i, j int) bool { return chars[i].MatchScore > chars[j].MatchScore })
}
