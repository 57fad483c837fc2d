package transcript

import (
	"strings"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// SourceManual marks conversations pasted by the visitor instead of fetched.
const SourceManual = "manual"

var (
	userPrefixes      = []string{"user:", "you:", "me:"}
	assistantPrefixes = []string{"assistant:", "chatgpt:", "ai:"}
)

// ParseManual splits pasted text on speaker prefixes. Lines without a prefix
// continue the current turn; text before any prefix belongs to the user.
// Quality is high with four or more turns and the personality marker, else medium.
func ParseManual(text string) Conversation {
	var turns []domain.Turn
	role := domain.RoleUser
	var current strings.Builder

	flush := func() {
		if c := strings.TrimSpace(current.String()); c != "" {
			turns = append(turns, domain.Turn{Role: role, Content: c})
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case hasAnyPrefix(lower, userPrefixes):
			flush()
			role = domain.RoleUser
			current.WriteString(strings.TrimSpace(line[strings.Index(line, ":")+1:]))
		case hasAnyPrefix(lower, assistantPrefixes):
			flush()
			role = domain.RoleAssistant
			current.WriteString(strings.TrimSpace(line[strings.Index(line, ":")+1:]))
		default:
			current.WriteString("\n")
			current.WriteString(line)
		}
	}
	flush()

	c := newConversation(turns, "", SourceManual)
	c.quality = domain.QualityMedium
	if len(c.turns) >= 4 && c.marker {
		c.quality = domain.QualityHigh
	}
	return c
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
