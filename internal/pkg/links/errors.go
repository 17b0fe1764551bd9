package links

import (
	"errors"
	"fmt"

	"github.com/ManuelReschke/Urlsy/internal/pkg/shortener"
)

var (
	ErrInvalidSource           = errors.New("invalid_source")
	ErrInvalidURL              = shortener.ErrInvalidURL
	ErrInvalidAlias            = errors.New("invalid_alias")
	ErrInvalidExpiry           = errors.New("invalid_expiry")
	ErrAliasTaken              = errors.New("alias_taken")
	ErrFreeLimitReached        = errors.New("free_limit_reached")
	ErrProRequired             = errors.New("pro_required")
	ErrCodeGenerationExhausted = errors.New("code_generation_exhausted")
	ErrNotFound                = errors.New("not_found")
	ErrUserNotFound            = errors.New("user_not_found")
)

// RateLimitError is returned when the caller exhausted its shorten budget.
type RateLimitError struct {
	RetryAfter int
	Hits       int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate_limited: retry after %ds", e.RetryAfter)
}
