package insight

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/pkg/textx"
)

// Prompt-store keys.
const (
	AnalysisPromptKey  = "analysis-quick"
	CharacterPromptKey = "character-generation"
)

const analysisPreamble = "You are a personality analysis expert.\n\n"

// defaultAnalysisTemplate is used when the store has no analysis-quick prompt.
const defaultAnalysisTemplate = `Read the conversation below between a person and an AI assistant. The person asked the assistant to describe them for {{CATEGORY}} matching.

Return a JSON object with exactly these fields:
- "overall_vibe": one sentence capturing who this person is
- "insights": an array of 3 short, specific observations about how they think, communicate and decide

Base every statement on the conversation. Do not include anything else besides the JSON object.

CONVERSATION:
{{CONVERSATION}}`

// defaultCharacterTemplate is used when the store has no character-generation prompt.
const defaultCharacterTemplate = `Create 5 fictional {{ENTITY_TYPE}} for a {{CATEGORY}} matching preview.

PERSON:
Overall vibe: {{OVERALL_VIBE}}
Insights:
{{INSIGHTS}}

Conversation sample:
{{CONVERSATION_SAMPLE}}

Each character is a {{MATCH_CONTEXT}} with a name, a role (for example "{{ROLE_EXAMPLE}}"), a matchScore between {{SCORE_MIN}} and {{SCORE_MAX}}, exactly 3 alignment points and exactly 2 challenges, focused on {{FOCUS_AREAS}}.
Spread the scores: one {{SCORE_HIGH_MIN}}-{{SCORE_HIGH_MAX}}, one {{SCORE_GOOD_MIN}}-{{SCORE_GOOD_MAX}}, one or two {{SCORE_MED_MIN}}-{{SCORE_MED_MAX}}, one {{SCORE_LOW_MIN}}-{{SCORE_LOW_MAX}}.
Vary {{DIVERSITY_DIMENSION}} across the five.

Examples of the expected shape:
{{TEMPLATE_EXAMPLES}}

Respond with JSON only: {"characters": [{"name": "...", "role": "...", "matchScore": 0, "alignment": ["...", "...", "..."], "challenges": ["...", "..."]}]}`

// renderTurns formats turns as "ROLE: content" blocks.
func renderTurns(turns []domain.Turn) []string {
	blocks := make([]string, 0, len(turns))
	for _, t := range turns {
		blocks = append(blocks, strings.ToUpper(string(t.Role))+": "+t.Content)
	}
	return blocks
}

func buildAnalysisPrompt(tmpl string, category domain.Category, conversation string) string {
	return analysisPreamble + textx.Fill(tmpl, map[string]string{
		"CONVERSATION": conversation,
		"CATEGORY":     string(category),
	})
}

// templateExamples returns the two few-shot characters shown in the prompt.
func templateExamples(category domain.Category, t CategoryTemplate) []domain.Character {
	scores := []int{88, 67}
	out := make([]domain.Character, 0, len(scores))
	for i, score := range scores {
		out = append(out, domain.Character{
			ID:          string(category) + "-example-" + strconv.Itoa(i+1),
			Name:        t.Names[i],
			Role:        t.Roles[i],
			AvatarColor: t.AvatarColor(i),
			MatchScore:  score,
			Alignment:   t.Alignment[i],
			Challenges:  t.Challenges[i],
			Category:    category,
		})
	}
	return out
}

func buildCharacterPrompt(tmpl string, category domain.Category, t CategoryTemplate, analysis domain.Analysis, sample string) (string, error) {
	examples, err := json.MarshalIndent(templateExamples(category, t), "", "  ")
	if err != nil {
		return "", err
	}
	insights := make([]string, 0, len(analysis.Insights))
	for i, in := range analysis.Insights {
		insights = append(insights, strconv.Itoa(i+1)+". "+in)
	}
	r := t.ScoreRange
	itoa := strconv.Itoa
	return textx.Fill(tmpl, map[string]string{
		"CATEGORY":            string(category),
		"OVERALL_VIBE":        analysis.OverallVibe,
		"INSIGHTS":            strings.Join(insights, "\n"),
		"CONVERSATION_SAMPLE": sample,
		"ENTITY_TYPE":         t.Guidance.EntityType,
		"SCORE_MIN":           itoa(r.Min),
		"SCORE_MAX":           itoa(r.Max),
		"SCORE_HIGH_MIN":      itoa(r.Max - 5),
		"SCORE_HIGH_MAX":      itoa(r.Max),
		"SCORE_GOOD_MIN":      itoa(r.Max - 15),
		"SCORE_GOOD_MAX":      itoa(r.Max - 8),
		"SCORE_MED_MIN":       itoa(r.Mid() - 5),
		"SCORE_MED_MAX":       itoa(r.Mid() + 5),
		"SCORE_LOW_MIN":       itoa(r.Min),
		"SCORE_LOW_MAX":       itoa(r.Min + 10),
		"MATCH_CONTEXT":       t.Guidance.MatchContext,
		"FOCUS_AREAS":         t.Guidance.FocusAreas,
		"DIVERSITY_DIMENSION": t.Guidance.DiversityDimension,
		"TEMPLATE_EXAMPLES":   string(examples),
		"ROLE_EXAMPLE":        t.Guidance.RoleExamples[0],
	}), nil
}
