package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// Rejection reasons shown to the visitor.
const (
	ReasonEmpty         = "This shared link appears to be empty. Please make sure you have a conversation with at least 5-10 message exchanges before sharing the link."
	ReasonTooShort      = "This conversation is too short. Please have at least 5-10 message exchanges for accurate analysis."
	ReasonLowContent    = "This conversation doesn't have enough content. Try having a longer, more detailed conversation (5-10 exchanges)."
	ReasonNoUserMessage = "No user message found in conversation."
	ReasonPromptChanged = "The prompt in this conversation has been modified. Please go back to the instructions page and copy-paste the predefined prompt exactly without any modifications. This ensures consistent and accurate personality analysis."
)

const minTotalContent = 100

// ErrNoCanonicalPrompts is returned when the prompt store has no elicitation prompts.
var ErrNoCanonicalPrompts = errors.New("failed to load conversation prompts")

// CanonicalPrompt is the elicitation text visitors paste to start a conversation.
type CanonicalPrompt struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Text        string `json:"prompt"`
	Description string `json:"description"`
}

// PromptSource loads the current canonical prompts.
type PromptSource interface {
	CanonicalPrompts(ctx context.Context) ([]CanonicalPrompt, error)
}

// Outcome is the result of validating a conversation.
type Outcome struct {
	Valid           bool
	Reason          string
	MatchedCategory string
}

func reject(reason string) Outcome { return Outcome{Reason: reason} }

// Validator gates conversations before analysis.
type Validator struct {
	prompts PromptSource
	debug   bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithDebugReasons appends length and mismatch details to prompt rejections.
func WithDebugReasons(on bool) ValidatorOption { return func(v *Validator) { v.debug = on } }

func NewValidator(prompts PromptSource, opts ...ValidatorOption) *Validator {
	v := &Validator{prompts: prompts}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate applies the checks in order; the first failing one decides the reason.
// An error is returned only when the prompt store cannot be read.
func (v *Validator) Validate(ctx context.Context, c Conversation) (Outcome, error) {
	switch {
	case c.TurnCount() == 0:
		return reject(ReasonEmpty), nil
	case c.TurnCount() < 2:
		return reject(ReasonTooShort), nil
	case c.TotalContentLength() < minTotalContent:
		return reject(ReasonLowContent), nil
	}
	first, ok := c.FirstTurn(domain.RoleUser)
	if !ok {
		return reject(ReasonNoUserMessage), nil
	}
	return v.matchPrompt(ctx, first.Content)
}

func (v *Validator) matchPrompt(ctx context.Context, userText string) (Outcome, error) {
	prompts, err := v.prompts.CanonicalPrompts(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("op=transcript.validate: %w", err)
	}
	if len(prompts) == 0 {
		return Outcome{}, fmt.Errorf("op=transcript.validate: %w", ErrNoCanonicalPrompts)
	}

	candidate := Normalize(userText)
	detail := ""
	for _, p := range prompts {
		expected := Normalize(p.Text)
		if candidate == expected {
			return Outcome{Valid: true, MatchedCategory: p.Category}, nil
		}
		pos := FirstMismatch(candidate, expected)
		slog.Debug("prompt mismatch",
			slog.String("category", p.Category),
			slog.Int("position", pos),
			slog.String("user", contextAround(candidate, pos, 50)),
			slog.String("expected", contextAround(expected, pos, 50)))
		if detail == "" {
			ul, el := len([]rune(candidate)), len([]rune(expected))
			detail = fmt.Sprintf("Length: %d vs %d (diff: %d). Mismatch at position %d.", ul, el, ul-el, pos)
		}
	}
	reason := ReasonPromptChanged
	if v.debug && detail != "" {
		reason += " (Debug: " + detail + ")"
	}
	return reject(reason), nil
}
