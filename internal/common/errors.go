package common

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds for the extraction pipeline. Per-provider kinds (timeout,
// unavailable, auth, remote, parse) are recovered inside the orchestrator by
// advancing to the next variant; the rest are terminal for a request.
var (
	ErrTimeout     = errors.New("provider timeout")
	ErrUnavailable = errors.New("provider unavailable")
	ErrAuth        = errors.New("provider rejected credentials")
	ErrRemote      = errors.New("provider remote error")
	ErrParse       = errors.New("no usable shot data in provider output")

	ErrAllProvidersExhausted = errors.New("all providers exhausted")
	ErrQuotaExceeded         = errors.New("daily quota exceeded")
	ErrStorage               = errors.New("storage error")
	ErrInvalidInput          = errors.New("invalid input")
)

// QuotaError is returned when a caller has used up its daily allowance.
// ResetAt is the next UTC midnight, which is also when the counter expires.
type QuotaError struct {
	Limit   int
	ResetAt time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("daily limit of %d exceeded, resets at %s", e.Limit, e.ResetAt.UTC().Format(time.RFC3339))
}

func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}

// WrapError wraps err with a message, preserving the error chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
