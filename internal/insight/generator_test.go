package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/internal/retry"
)

// scriptedLLM replays replies in order; an error entry fails that call.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []any
	prompts []string
}

func (s *scriptedLLM) Provider() string { return "scripted" }

func (s *scriptedLLM) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

type usage struct {
	id      string
	success bool
}

type fakePrompts struct {
	prompts map[string]domain.Prompt
	err     error
	usage   []usage
}

func (f *fakePrompts) ActivePrompt(_ context.Context, key string) (domain.Prompt, error) {
	if f.err != nil {
		return domain.Prompt{}, f.err
	}
	p, ok := f.prompts[key]
	if !ok {
		return domain.Prompt{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakePrompts) RecordUsage(_ context.Context, id string, success bool) {
	f.usage = append(f.usage, usage{id, success})
}

type instantTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func newInstantTimer() *instantTimer { return &instantTimer{c: make(chan time.Time, 1)} }

func (f *instantTimer) Start(d time.Duration) {
	f.waits = append(f.waits, d)
	f.c <- time.Time{}
}
func (f *instantTimer) Stop()               {}
func (f *instantTimer) C() <-chan time.Time { return f.c }

const analysisJSON = `{"overall_vibe":"A calm systems thinker","insights":["Plans before acting","Asks precise questions","Prefers written feedback"]}`

func charactersJSON(scores ...int) string {
	type c struct {
		Name       string   `json:"name"`
		Role       string   `json:"role"`
		MatchScore int      `json:"matchScore"`
		Alignment  []string `json:"alignment"`
		Challenges []string `json:"challenges"`
	}
	var out struct {
		Characters []c `json:"characters"`
	}
	for i, s := range scores {
		out.Characters = append(out.Characters, c{
			Name:       fmt.Sprintf("Person %d", i),
			Role:       "Engineer",
			MatchScore: s,
			Alignment:  []string{"a", "b", "c"},
			Challenges: []string{"x", "y"},
		})
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func newTestGenerator(t *testing.T, llm domain.TextGenerator, prompts PromptStore, timer *instantTimer) *Generator {
	t.Helper()
	g, err := NewGenerator(llm, prompts,
		WithCounter(tokencount.NewEstimator()),
		WithRetryOptions(retry.WithTimer(timer)))
	require.NoError(t, err)
	return g
}

var sampleTurns = []domain.Turn{
	{Role: domain.RoleUser, Content: "Describe my personality"},
	{Role: domain.RoleAssistant, Content: "You are methodical"},
}

func TestRun_Success(t *testing.T) {
	llm := &scriptedLLM{replies: []any{
		"```json\n" + analysisJSON + "\n```",
		charactersJSON(70, 91, 65, 88, 80),
	}}
	g := newTestGenerator(t, llm, nil, newInstantTimer())

	res := g.Run(context.Background(), domain.CategoryHiring, sampleTurns, "user: hi")
	require.False(t, res.UsedFallback)
	assert.Equal(t, "A calm systems thinker", res.Analysis.OverallVibe)
	assert.Len(t, res.Analysis.Insights, 3)
	require.Len(t, res.Characters, 5)

	scores := []int{}
	for _, c := range res.Characters {
		scores = append(scores, c.MatchScore)
		assert.Equal(t, domain.CategoryHiring, c.Category)
		assert.True(t, strings.HasPrefix(c.ID, "hiring-gen-"))
	}
	assert.Equal(t, []int{91, 88, 80, 70, 65}, scores)
	// Colors follow the model's original order, not the sorted one.
	assert.Equal(t, "hiring-gen-1", res.Characters[0].ID)
	assert.Equal(t, "bg-purple-500", res.Characters[0].AvatarColor)

	require.Len(t, llm.prompts, 2)
	assert.True(t, strings.HasPrefix(llm.prompts[0], "You are a personality analysis expert.\n\n"))
	assert.Contains(t, llm.prompts[0], "USER: Describe my personality\n\nASSISTANT: You are methodical")
	assert.Contains(t, llm.prompts[1], "1. Plans before acting\n2. Asks precise questions")
	assert.Contains(t, llm.prompts[1], `"id": "hiring-example-1"`)
}

func TestRun_RetriesThenFallsBack(t *testing.T) {
	boom := errors.New("503")
	llm := &scriptedLLM{replies: []any{boom, boom, boom}}
	timer := newInstantTimer()
	g := newTestGenerator(t, llm, nil, timer)

	res := g.Run(context.Background(), domain.CategoryDating, sampleTurns, "")
	assert.True(t, res.UsedFallback)
	assert.Len(t, llm.prompts, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, timer.waits)

	wantAnalysis, wantChars := g.Fallback(domain.CategoryDating)
	assert.Equal(t, wantAnalysis, res.Analysis)
	assert.Equal(t, wantChars, res.Characters)
}

func TestRun_BlockedIsNotRetried(t *testing.T) {
	llm := &scriptedLLM{replies: []any{fmt.Errorf("wrapped: %w", domain.ErrUpstreamBlocked)}}
	g := newTestGenerator(t, llm, nil, newInstantTimer())

	res := g.Run(context.Background(), domain.CategoryFounder, sampleTurns, "")
	assert.True(t, res.UsedFallback)
	assert.Len(t, llm.prompts, 1)
}

func TestRun_CharacterFailureKeepsAnalysis(t *testing.T) {
	llm := &scriptedLLM{replies: []any{analysisJSON, charactersJSON(90, 80, 70)}}
	g := newTestGenerator(t, llm, nil, newInstantTimer())

	res := g.Run(context.Background(), domain.CategoryHiring, sampleTurns, "")
	assert.True(t, res.UsedFallback)
	assert.Equal(t, "A calm systems thinker", res.Analysis.OverallVibe)
	_, want := g.Fallback(domain.CategoryHiring)
	assert.Equal(t, want, res.Characters)
}

func TestRun_NilGenerator(t *testing.T) {
	g, err := NewGenerator(nil, nil)
	require.NoError(t, err)
	res := g.Run(context.Background(), domain.CategoryHiring, sampleTurns, "")
	assert.True(t, res.UsedFallback)
	assert.Len(t, res.Characters, 5)
}

func TestAnalyze_RejectsIncompleteReply(t *testing.T) {
	for _, reply := range []string{
		`{"overall_vibe":"","insights":["x"]}`,
		`{"overall_vibe":"x","insights":[]}`,
		`{"overall_vibe":"x"}`,
		`not json`,
	} {
		llm := &scriptedLLM{replies: []any{reply}}
		g := newTestGenerator(t, llm, nil, newInstantTimer())
		_, err := g.Analyze(context.Background(), domain.CategoryHiring, sampleTurns)
		assert.ErrorIs(t, err, domain.ErrSchemaInvalid, reply)
	}
}

func TestGenerateCharacters_Validation(t *testing.T) {
	cases := map[string]string{
		"string score":      `{"characters":[{"name":"a","role":"r","matchScore":"80","alignment":["1","2","3"],"challenges":["1","2"]},{},{},{},{}]}`,
		"two alignment":     strings.Replace(charactersJSON(1, 2, 3, 4, 5), `["a","b","c"]`, `["a","b"]`, 1),
		"three challenges":  strings.Replace(charactersJSON(1, 2, 3, 4, 5), `["x","y"]`, `["x","y","z"]`, 1),
		"missing name":      strings.Replace(charactersJSON(1, 2, 3, 4, 5), `"Person 2"`, `""`, 1),
		"no characters key": `{"items":[]}`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			llm := &scriptedLLM{replies: []any{reply}}
			g := newTestGenerator(t, llm, nil, newInstantTimer())
			_, err := g.GenerateCharacters(context.Background(), domain.CategoryHiring, domain.Analysis{OverallVibe: "v", Insights: []string{"i"}}, "")
			assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
		})
	}
}

func TestFallback_Deterministic(t *testing.T) {
	g, err := NewGenerator(nil, nil)
	require.NoError(t, err)

	for _, cat := range domain.Categories() {
		a1, c1 := g.Fallback(cat)
		a2, c2 := g.Fallback(cat)
		assert.Equal(t, a1, a2)
		assert.Equal(t, c1, c2)
		require.Len(t, c1, 5)
		for i := 1; i < len(c1); i++ {
			assert.GreaterOrEqual(t, c1[i-1].MatchScore, c1[i].MatchScore)
		}
	}

	_, chars := g.Fallback(domain.CategoryHiring)
	scores := []int{}
	ids := []string{}
	for _, c := range chars {
		scores = append(scores, c.MatchScore)
		ids = append(ids, c.ID)
	}
	// 94-2, 94-10, (62+94)/2, 62+10, 62+5
	assert.Equal(t, []int{92, 84, 78, 72, 67}, scores)
	assert.Equal(t, []string{"hiring-0", "hiring-1", "hiring-2", "hiring-3", "hiring-4"}, ids)
	assert.Equal(t, "TechNova Solutions", chars[0].Name)
	assert.Equal(t, "Senior Software Engineer", chars[0].Role)
}

func TestPromptStore_UsageAndOverride(t *testing.T) {
	store := &fakePrompts{prompts: map[string]domain.Prompt{
		AnalysisPromptKey: {ID: "p-analysis", Key: AnalysisPromptKey, Content: "CUSTOM {{CATEGORY}}: {{CONVERSATION}}"},
	}}
	llm := &scriptedLLM{replies: []any{analysisJSON, `{"characters":[]}`}}
	g := newTestGenerator(t, llm, store, newInstantTimer())

	res := g.Run(context.Background(), domain.CategoryDating, sampleTurns, "")
	assert.True(t, res.UsedFallback)
	assert.Equal(t, analysisPreamble+"CUSTOM dating: USER: Describe my personality\n\nASSISTANT: You are methodical", llm.prompts[0])
	// Built-in character template has no id, so only the analysis prompt is tracked.
	assert.Equal(t, []usage{{"p-analysis", true}}, store.usage)
}

func TestPromptStore_LookupErrorUsesDefault(t *testing.T) {
	store := &fakePrompts{err: errors.New("db down")}
	llm := &scriptedLLM{replies: []any{analysisJSON}}
	g := newTestGenerator(t, llm, store, newInstantTimer())

	_, err := g.Analyze(context.Background(), domain.CategoryHiring, sampleTurns)
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], "CONVERSATION:\nUSER: Describe my personality")
	assert.Empty(t, store.usage)
}

func TestAnalyze_TokenBudget(t *testing.T) {
	turns := []domain.Turn{
		{Role: domain.RoleUser, Content: strings.Repeat("a", 40)},
		{Role: domain.RoleAssistant, Content: strings.Repeat("b", 400)},
	}
	llm := &scriptedLLM{replies: []any{analysisJSON, charactersJSON(90, 80, 70, 60, 50)}}
	g, err := NewGenerator(llm, nil,
		WithCounter(tokencount.NewEstimator()),
		WithTokenBudget(20),
		WithRetryOptions(retry.WithTimer(newInstantTimer())))
	require.NoError(t, err)

	res := g.Run(context.Background(), domain.CategoryHiring, turns, "")
	assert.True(t, res.Truncated)
	assert.NotContains(t, llm.prompts[0], "bbbb")
}
