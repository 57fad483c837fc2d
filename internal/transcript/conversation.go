// Package transcript recovers chat turns from shared conversation pages,
// validates them and post-parses model output.
package transcript

import (
	"strings"
	"unicode/utf8"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

var personalityMarkers = []string{"personality", "communication style", "objective analysis"}

// Conversation is the result of one extraction call. It is never mutated
// after construction; accessors return copies.
type Conversation struct {
	turns   []domain.Turn
	title   string
	marker  bool
	quality domain.Quality
	source  string
}

// NewConversation derives the marker and quality estimate from turns.
func NewConversation(turns []domain.Turn, title, source string) Conversation {
	c := newConversation(turns, title, source)
	c.quality = estimateQuality(c.turns, c.marker)
	return c
}

func newConversation(turns []domain.Turn, title, source string) Conversation {
	cp := make([]domain.Turn, len(turns))
	copy(cp, turns)
	return Conversation{
		turns:  cp,
		title:  strings.TrimSpace(title),
		marker: hasPersonalityMarker(cp),
		source: source,
	}
}

// Turns returns a copy of the recovered turns.
func (c Conversation) Turns() []domain.Turn {
	out := make([]domain.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c Conversation) TurnCount() int { return len(c.turns) }

func (c Conversation) Title() string { return c.title }

func (c Conversation) HasPersonalityMarker() bool { return c.marker }

func (c Conversation) Quality() domain.Quality { return c.quality }

// Source names the strategy that produced the turns, empty when none did.
func (c Conversation) Source() string { return c.source }

// TotalContentLength counts characters across all turns.
func (c Conversation) TotalContentLength() int {
	total := 0
	for _, t := range c.turns {
		total += utf8.RuneCountInString(t.Content)
	}
	return total
}

// FirstTurn returns the first turn with the given role.
func (c Conversation) FirstTurn(role domain.Role) (domain.Turn, bool) {
	for _, t := range c.turns {
		if t.Role == role {
			return t, true
		}
	}
	return domain.Turn{}, false
}

// LastTurn returns the last turn with the given role.
func (c Conversation) LastTurn(role domain.Role) (domain.Turn, bool) {
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Role == role {
			return c.turns[i], true
		}
	}
	return domain.Turn{}, false
}

// Sample renders the first n turns as "role: content" lines, truncated to maxChars.
func (c Conversation) Sample(n, maxChars int) string {
	if n > len(c.turns) {
		n = len(c.turns)
	}
	lines := make([]string, 0, n)
	for _, t := range c.turns[:n] {
		lines = append(lines, string(t.Role)+": "+t.Content)
	}
	s := strings.Join(lines, "\n")
	if maxChars > 0 && utf8.RuneCountInString(s) > maxChars {
		s = string([]rune(s)[:maxChars])
	}
	return s
}

func hasPersonalityMarker(turns []domain.Turn) bool {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = t.Content
	}
	joined := strings.ToLower(strings.Join(parts, " "))
	for _, kw := range personalityMarkers {
		if strings.Contains(joined, kw) {
			return true
		}
	}
	return false
}

// estimateQuality: at least two turns, and a mean length above 500 with the
// marker is high, above 200 is medium.
func estimateQuality(turns []domain.Turn, marker bool) domain.Quality {
	if len(turns) < 2 {
		return domain.QualityLow
	}
	total := 0
	for _, t := range turns {
		total += utf8.RuneCountInString(t.Content)
	}
	mean := float64(total) / float64(len(turns))
	switch {
	case mean > 500 && marker:
		return domain.QualityHigh
	case mean > 200:
		return domain.QualityMedium
	default:
		return domain.QualityLow
	}
}

// alternate assigns roles by position starting with user.
func alternate(contents []string) []domain.Turn {
	turns := make([]domain.Turn, 0, len(contents))
	for i, content := range contents {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		turns = append(turns, domain.Turn{Role: role, Content: content})
	}
	return turns
}
