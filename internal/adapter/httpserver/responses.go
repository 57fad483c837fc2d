// Package httpserver contains HTTP handlers and middleware.
//
// Public routes answer with the flat {"error": message} shape the landing
// page expects; admin routes use the structured error envelope.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps domain sentinels to an HTTP status and a stable code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return http.StatusServiceUnavailable, "UPSTREAM_TIMEOUT"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return http.StatusServiceUnavailable, "UPSTREAM_RATE_LIMIT"
	case errors.Is(err, domain.ErrSchemaInvalid):
		return http.StatusServiceUnavailable, "SCHEMA_INVALID"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// writeError writes the admin error envelope.
func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code, codeStr := errorStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: msg, Details: details}})
}

// publicError is the body of every failed public route.
type publicError struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func writePublicError(w http.ResponseWriter, status int, msg string, details interface{}) {
	writeJSON(w, status, publicError{Error: msg, Details: details})
}
