package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBadEmail and ErrBadCode are client-input errors, rejected before
	// any store access.
	ErrBadEmail = errors.New("malformed email")
	ErrBadCode  = errors.New("malformed code")

	// ErrInvalidCode covers wrong, expired, used and unknown-email
	// redemptions alike. Callers cannot tell the branches apart.
	ErrInvalidCode = errors.New("invalid email or code")

	// ErrInvalidSession covers tampered, malformed and expired bearer
	// credentials alike.
	ErrInvalidSession = errors.New("invalid session")

	// ErrEmailNotAllowed is returned in whitelist mode for emails with no
	// existing user record.
	ErrEmailNotAllowed = errors.New("email not allowed")

	// ErrNotFound is the store's miss signal.
	ErrNotFound = errors.New("not found")
)

// RateLimitedError is surfaced with its retry hint; throttling is not an
// enumeration vector, so it is not hidden behind a uniform response.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
