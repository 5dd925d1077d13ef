package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

var _ model.SourceAdapter = (*RetryAdapter)(nil)

// RetryAdapter is a decorator that retries transient fetch failures with
// exponential backoff and jitter before delegating to the wrapped adapter.
type RetryAdapter struct {
	inner      model.SourceAdapter
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryAdapter wraps a SourceAdapter with retry logic. maxRetries is the
// number of additional attempts after the first failure; baseDelay is the
// delay before the first retry, doubled on each subsequent one.
func NewRetryAdapter(inner model.SourceAdapter, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryAdapter {
	return &RetryAdapter{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Fetch attempts the fetch, retrying on transient errors.
func (a *RetryAdapter) Fetch(ctx context.Context, since time.Time) ([]model.RawListing, error) {
	listings, err := a.inner.Fetch(ctx, since)
	if err == nil {
		return listings, nil
	}

	if !isRetryable(err) {
		return nil, err
	}

	lastErr := err
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		delay := a.backoffDelay(attempt, lastErr)

		a.logger.Warn("retrying fetch after transient error",
			"attempt", attempt,
			"max_retries", a.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		listings, err = a.inner.Fetch(ctx, since)
		if err == nil {
			return listings, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (a *RetryAdapter) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := a.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation is never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 {
			return true
		}
		if httpErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	// Non-HTTP errors (network, DNS, etc.) are retryable.
	return true
}
