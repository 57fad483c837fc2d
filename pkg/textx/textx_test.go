package textx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"control bytes dropped", "a\x00b\x07c\x7fd", "abcd"},
		{"layout whitespace kept", "line1\r\nline2\tend", "line1\r\nline2\tend"},
		{"outer space trimmed", "  \n hi there \t\n", "hi there"},
		{"unicode kept", "caf\u00e9 \u2764", "caf\u00e9 \u2764"},
		{"only controls", "\x01\x02\x1b", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeText(tc.in))
		})
	}
}

func TestFill(t *testing.T) {
	tmpl := "Analyze {{CONVERSATION}} for {{CATEGORY}} ({{SCORE_MIN}}-{{SCORE_MAX}}), keep {{UNKNOWN}}. {{CATEGORY}} again."
	got := Fill(tmpl, map[string]string{
		"CONVERSATION": "USER: hi",
		"CATEGORY":     "dating",
		"SCORE_MIN":    "58",
		"SCORE_MAX":    "92",
	})
	assert.Equal(t, "Analyze USER: hi for dating (58-92), keep {{UNKNOWN}}. dating again.", got)
	assert.Equal(t, "{{X}}", Fill("{{X}}", nil))
}

func TestFill_ValuesAreNotReexpanded(t *testing.T) {
	got := Fill("{{A}} {{B}}", map[string]string{"A": "{{B}}", "B": "b"})
	assert.Equal(t, "{{B}} b", got)
}

func TestJoinEnglish(t *testing.T) {
	assert.Equal(t, "", JoinEnglish(nil))
	assert.Equal(t, "dating", JoinEnglish([]string{"dating"}))
	assert.Equal(t, "hiring and dating", JoinEnglish([]string{"hiring", "dating"}))
	assert.Equal(t, "a, b, and c", JoinEnglish([]string{"a", "b", "c"}))
}
