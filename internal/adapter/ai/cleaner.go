// Package ai holds helpers shared by LLM adapters.
package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

var (
	fencePattern         = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
)

// CleanJSON turns a model reply into a JSON object string. It strips
// markdown fences, cuts the first balanced object out of surrounding prose
// and drops trailing commas. The result is guaranteed to be valid JSON;
// otherwise an ErrSchemaInvalid error is returned.
func CleanJSON(reply string) (string, error) {
	s := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return s, nil
	}
	if obj, ok := firstObject(s); ok {
		s = obj
	}
	if !json.Valid([]byte(s)) {
		s = trailingCommaPattern.ReplaceAllString(s, "$1")
	}
	if !json.Valid([]byte(s)) || !strings.HasPrefix(s, "{") {
		return "", fmt.Errorf("%w: reply is not a JSON object", domain.ErrSchemaInvalid)
	}
	return s, nil
}

// firstObject returns the first brace-balanced object in s, ignoring braces
// inside string literals.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
