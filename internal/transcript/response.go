package transcript

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// ratingPatterns are tried in order; the first that matches anywhere wins.
var ratingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)OVERALL COMPLETENESS:\s*(\d+)/10`),
	regexp.MustCompile(`(?i)COMPLETENESS RATING:\s*(\d+)/10`),
	regexp.MustCompile(`(?i)RATING:\s*(\d+)/10`),
	regexp.MustCompile(`(\d+)\s*/\s*10`),
	regexp.MustCompile(`(?i)score[:\s]+(\d+)`),
}

var (
	assessmentPattern  = regexp.MustCompile(`--- ASSESSMENT ---\s*OVERALL COMPLETENESS:\s*(\d+)/10\s*(?:Rating Criteria:([\s\S]*?))?\s*ANALYSIS:\s*([\s\S]*?)--- END ASSESSMENT ---`)
	analysisSection    = regexp.MustCompile(`ANALYSIS:\s*([\s\S]*?)--- END ASSESSMENT ---`)
	assessmentSection  = regexp.MustCompile(`--- ASSESSMENT ---[\s\S]*?--- END ASSESSMENT ---`)
	trailingRatingLine = regexp.MustCompile(`COMPLETENESS RATING: \d+/10\s*$`)
)

// Assessment is the optional structured block at the end of a model answer.
type Assessment struct {
	Rating   int    `json:"rating"`
	Label    string `json:"label"`
	Criteria string `json:"criteria,omitempty"`
	Analysis string `json:"analysis"`
}

// ParsedResponse holds what could be recovered from a model answer.
type ParsedResponse struct {
	Summary            string
	CompletenessRating *int
	Assessment         *Assessment
}

// ParseResponse never fails; every field except Summary may be absent.
func ParseResponse(text string) ParsedResponse {
	out := ParsedResponse{Summary: extractSummary(text)}

	if raw, ok := firstRating(text); ok {
		if raw >= 1 && raw <= 10 {
			r := raw
			out.CompletenessRating = &r
		} else {
			slog.Warn("completeness rating out of range", slog.Int("rating", raw))
		}
	} else {
		slog.Warn("completeness rating not found", slog.Int("text_len", len(text)))
	}

	if m := assessmentPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out.Assessment = &Assessment{
				Rating:   n,
				Label:    RatingLabel(n),
				Criteria: strings.TrimSpace(m[2]),
				Analysis: strings.TrimSpace(m[3]),
			}
		}
	}
	return out
}

func firstRating(text string) (int, bool) {
	for _, p := range ratingPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// digits too long for int; treat as out of range
			return -1, true
		}
		return n, true
	}
	return 0, false
}

func extractSummary(text string) string {
	if m := analysisSection.FindStringSubmatch(text); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	s := strings.TrimSpace(assessmentSection.ReplaceAllString(text, ""))
	s = strings.TrimSpace(trailingRatingLine.ReplaceAllString(s, ""))
	if s == "" {
		return strings.TrimSpace(text)
	}
	return s
}

// RatingLabel buckets a completeness rating.
func RatingLabel(rating int) string {
	switch {
	case rating >= 9:
		return "EXCELLENT"
	case rating >= 7:
		return "GOOD"
	case rating >= 4:
		return "MINIMAL"
	default:
		return "INSUFFICIENT"
	}
}
