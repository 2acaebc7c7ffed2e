// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants and the single mapping
// from service errors to HTTP results (mapError). Codes give clients a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., already_sold, invalid_transition) are reserved
//     for workflow outcomes that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "already_sold",
//	  "message": "item already sold"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/roomie-mart-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeSelfReference     = "self_reference"
	ErrCodeAlreadySold       = "already_sold"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)

// mapError translates a service error into (status, code, message). Unknown
// errors become a 500 with a generic message; the cause is logged by failErr.
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, err.Error()
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, "you do not have permission to do that"
	case errors.Is(err, services.ErrSelfReference):
		return http.StatusBadRequest, ErrCodeSelfReference, err.Error()
	case errors.Is(err, services.ErrAlreadySold):
		return http.StatusConflict, ErrCodeAlreadySold, err.Error()
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, ErrCodeInvalidTransition, "request is not in a state that allows this"
	case errors.Is(err, services.ErrDuplicateFeedback):
		return http.StatusConflict, ErrCodeConflict, err.Error()
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "internal error"
	}
}
