package transcript

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	uuidPattern       = regexp.MustCompile(`(?i)^[a-f0-9-]{36}$`)
	leadingDataChars  = regexp.MustCompile(`^[\d.,\[\]{}\\:]+`)
	wordPattern       = regexp.MustCompile(`(?i)[a-z]{3,}`)
	longWordPattern   = regexp.MustCompile(`(?i)[a-z]{10,}`)
	technicalMarkers  = []string{"cdn.oaistatic", "window.", "function(", "import ", "_v4.0"}
	nonMessageMarkers = []string{"cdn.oaistatic", "window.", "function("}
)

var unescaper = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\"`, `"`,
	`\'`, `'`,
)

// unescapeLiteral resolves the common escape sequences of a quoted literal.
// An escaped backslash is consumed first so `\\n` stays a backslash and an n.
func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return unescaper.Replace(s)
}

// looksTechnical reports literals that are URLs, ids, code or data rather than prose.
func looksTechnical(s string) bool {
	if strings.HasPrefix(s, "http") || strings.HasPrefix(s, ":") {
		return true
	}
	for _, m := range technicalMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return uuidPattern.MatchString(s) ||
		leadingDataChars.MatchString(s) ||
		utf8.RuneCountInString(s) < 20 ||
		!wordPattern.MatchString(s)
}

// looksLikeMessage is the looser check applied to strings inside decoded payloads.
func looksLikeMessage(s string) bool {
	if utf8.RuneCountInString(s) <= 50 || strings.HasPrefix(s, "http") {
		return false
	}
	for _, m := range nonMessageMarkers {
		if strings.Contains(s, m) {
			return false
		}
	}
	return longWordPattern.MatchString(s)
}
