package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorConstants(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrInvalidArgument", ErrInvalidArgument, "invalid argument"},
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrConflict", ErrConflict, "conflict"},
		{"ErrRateLimited", ErrRateLimited, "rate limited"},
		{"ErrUpstreamTimeout", ErrUpstreamTimeout, "upstream timeout"},
		{"ErrUpstreamRateLimit", ErrUpstreamRateLimit, "upstream rate limit"},
		{"ErrUpstreamBlocked", ErrUpstreamBlocked, "upstream blocked"},
		{"ErrSchemaInvalid", ErrSchemaInvalid, "schema invalid"},
		{"ErrInternal", ErrInternal, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected %s to be %q, got %q", tt.name, tt.expected, tt.err.Error())
			}
		})
	}
}

func TestUserError(t *testing.T) {
	err := fmt.Errorf("op=analyze.fetch: %w", NewUserError(ErrInvalidArgument, "bad link %d", 7))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected wrapped kind to match")
	}
	msg, ok := UserMessage(err)
	if !ok || msg != "bad link 7" {
		t.Fatalf("unexpected user message %q ok=%v", msg, ok)
	}
	if _, ok := UserMessage(ErrInternal); ok {
		t.Fatalf("plain sentinel must not carry a user message")
	}
}

func TestRateLimitError(t *testing.T) {
	reset := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	var err error = &RateLimitError{ResetAt: reset}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited")
	}
	var rl *RateLimitError
	if !errors.As(fmt.Errorf("wrap: %w", err), &rl) || !rl.ResetAt.Equal(reset) {
		t.Fatalf("expected reset time to survive wrapping")
	}
}

func TestCategory(t *testing.T) {
	cases := map[Category]string{
		CategoryHiring:  "conversation-hiring",
		CategoryDating:  "conversation-dating",
		CategoryFounder: "conversation-cofounder",
	}
	for c, key := range cases {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
		if got := c.ConversationPromptKey(); got != key {
			t.Errorf("%s key = %q, want %q", c, got, key)
		}
	}
	if Category("friends").Valid() {
		t.Errorf("unknown category must be invalid")
	}
	if len(Categories()) != 3 {
		t.Errorf("expected three categories")
	}
}
