// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Fill replaces every {{KEY}} in tmpl with values[KEY] in a single pass;
// substituted values are not expanded again. Unknown placeholders are kept.
func Fill(tmpl string, values map[string]string) string {
	if len(values) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(values))
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// JoinEnglish joins items as "a", "a and b" or "a, b, and c".
func JoinEnglish(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
