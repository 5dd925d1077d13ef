package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedInput marks a raw listing missing required fields. The caller
// skips the record and continues; one bad record never blocks a batch.
var ErrMalformedInput = errors.New("malformed input")

// ErrStoreUnavailable marks a dedup store failure. Admission fails closed:
// the record is not admitted rather than risking an unguarded duplicate, and
// the whole batch is retried later.
var ErrStoreUnavailable = errors.New("dedup store unavailable")

// ErrCompanyNotFound is a permanent verification failure: the provider has
// no record of the company. Never retried.
var ErrCompanyNotFound = errors.New("company not found")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
