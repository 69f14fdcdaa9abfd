// Package common defines shared constants, helpers and sentinel errors used
// across client and server layers of equitygate. Callers should use errors.Is
// (or errors.As for the typed errors) to match these values.
package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrTransientStore      = errors.New("store temporarily unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("registration already in progress")

	// Credential errors. ErrInvalidCredentials is deliberately shared by
	// "unknown email" and "wrong password".
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotVerified = errors.New("account is not verified")
	ErrAlreadyVerified    = errors.New("already verified")

	// OTP errors.
	ErrNoOTPRequested = errors.New("no verification code requested")
	ErrOTPExpired     = errors.New("verification code expired")
	ErrInvalidCode    = errors.New("invalid verification code")

	ErrRateLimited = errors.New("too many attempts")

	// Email transport and other collaborators.
	ErrDependencyFailure = errors.New("dependency failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError lists the input fields that failed validation, keyed by
// field name. It matches ErrValidation via errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RateLimitError is returned when a fixed-window limiter denies an action.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.ResetAt.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfter returns how long the caller has to wait relative to now.
func (e *RateLimitError) RetryAfter(now time.Time) time.Duration {
	d := e.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
