package transcript

import (
	"regexp"
	"strings"
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	spaceRuns      = regexp.MustCompile(` {2,}`)
)

// Normalize trims the text and each line, unifies line endings, collapses
// three or more newlines to two and runs of spaces to one.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return spaceRuns.ReplaceAllString(s, " ")
}

// FirstMismatch returns the first index at which a and b differ, or -1 when equal.
func FirstMismatch(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := min(len(ra), len(rb))
	for i := 0; i < n; i++ {
		if ra[i] != rb[i] {
			return i
		}
	}
	if len(ra) != len(rb) {
		return n
	}
	return -1
}

// contextAround renders a window of text around pos for debug logs.
func contextAround(text string, pos, width int) string {
	r := []rune(text)
	start := max(0, pos-width)
	end := min(len(r), pos+width)
	at := "[END]"
	if pos >= 0 && pos < len(r) {
		at = string(r[pos])
	}
	before := ""
	if pos <= len(r) && start < pos {
		before = string(r[start:pos])
	}
	after := ""
	if pos+1 < end {
		after = string(r[pos+1 : end])
	}
	return "..." + before + "[>" + at + "<]" + after + "..."
}
