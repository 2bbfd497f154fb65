package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrCSRFMismatch       = errors.New("invalid csrf token")
)

// ValidationError carries one human-readable message per violated rule.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// NewValidationError returns a ValidationError for msgs.
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

// RateLimitError reports a denied request together with the time until the
// current window closes. It matches ErrRateLimited under errors.Is.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %d seconds", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
