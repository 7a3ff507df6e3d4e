// Package common defines shared constants and sentinel errors used across
// the server components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors (rejected before any mutation).
	ErrorValidation = errors.New("validation error")

	// Conflict errors, mapped from uniqueness-constraint violations.
	ErrorDuplicateKey       = errors.New("duplicate natural key")
	ErrorOwnershipMismatch  = errors.New("ownership mismatch")
	ErrorUnknownCustomField = errors.New("unknown custom field")

	// Auth/session errors (invalid or malformed token).
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionNotVerified = errors.New("session not verified")

	// Request timeout, kept distinct so the transport can answer 408.
	ErrorTimeout = errors.New("request timed out")
)
