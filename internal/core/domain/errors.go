package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPaperNotFound     = errors.New("paper not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrSearchUnavailable = errors.New("search unavailable")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// RateLimitError carries the limiter decision so the adapter can build
// a Retry-After response without re-querying the counter.
type RateLimitError struct {
	Info RateLimitInfo
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%d in %ds window", e.Info.CurrentCount, e.Info.Limit, e.Info.WindowSeconds)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
