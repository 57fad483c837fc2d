package domain

import (
	"errors"
	"fmt"
	"time"
)

// UserError carries a message that is safe to show to the visitor. Kind is one
// of the sentinel errors and decides the HTTP status.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Kind }

// NewUserError builds a UserError of the given kind.
func NewUserError(kind error, format string, args ...any) error {
	return &UserError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// UserMessage returns the visitor-facing message of err, if it has one.
func UserMessage(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message, true
	}
	return "", false
}

// RateLimitError is returned when a caller exhausted its window.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.ResetAt.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
