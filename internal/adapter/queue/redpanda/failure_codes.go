package redpanda

import (
	"context"
	"errors"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// classifyFailureCode maps a delivery error to a stable code for logs.
func classifyFailureCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return "UPSTREAM_RATE_LIMIT"
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return "UPSTREAM_TIMEOUT"
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrSchemaInvalid):
		return "SCHEMA_INVALID"
	default:
		return "INTERNAL"
	}
}
