package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit is returned when the vendor throttles the caller (HTTP 429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrQuotaExceeded is returned when the account has run out of credit
// (HTTP 402). Retrying does not help until billing is fixed.
type ErrQuotaExceeded struct {
	Err error
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("quota exhausted: %v", e.Err)
}

func (e *ErrQuotaExceeded) Unwrap() error { return e.Err }

// ErrInvalidResponse is returned when the content is not parseable or does
// not satisfy the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers 5xx responses and transport failures.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded is returned when output was cut off at MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// IsRateLimited reports whether err carries an *ErrRateLimit.
func IsRateLimited(err error) bool {
	var rl *ErrRateLimit
	return errors.As(err, &rl)
}

// IsQuotaExceeded reports whether err carries an *ErrQuotaExceeded.
func IsQuotaExceeded(err error) bool {
	var q *ErrQuotaExceeded
	return errors.As(err, &q)
}

// mapStatus turns a vendor HTTP status into a typed error.
func mapStatus(status int, retryAfter time.Duration, err error) error {
	switch {
	case status == 429:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	case status == 402:
		return &ErrQuotaExceeded{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}
