package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// Confidence multipliers per verification outcome. Inconclusive covers
// exhausted retries and permanent failures alike.
const (
	confidenceVerified     = 1.0
	confidenceUnverified   = 0.2
	confidenceInconclusive = 0.5
)

// Enricher runs company verification with a per-call timeout and bounded
// retries. It never fails the pipeline: any unrecoverable outcome becomes
// an Inconclusive result.
type Enricher struct {
	verifier    model.Verifier
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *slog.Logger
}

// NewEnricher wires the verifier with its retry policy. maxAttempts counts
// the first try; baseDelay doubles per retry and is capped at maxDelay.
func NewEnricher(verifier model.Verifier, timeout time.Duration, maxAttempts int, baseDelay, maxDelay time.Duration, logger *slog.Logger) *Enricher {
	return &Enricher{
		verifier:    verifier,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		logger:      logger,
	}
}

// Enrich verifies the job's company against its URL domain. Transient
// failures (timeout, 5xx, network) are retried with exponential backoff;
// permanent ones (not-found) are not. Exhaustion degrades to Inconclusive.
func (e *Enricher) Enrich(ctx context.Context, job model.CanonicalJob) model.EnrichmentResult {
	domain := domainOf(job.URL)

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		outcome, err := e.verifier.Verify(callCtx, job.Company, domain)
		cancel()

		if err == nil {
			return result(outcome)
		}
		lastErr = err

		if !isTransient(err) || ctx.Err() != nil {
			break
		}

		if attempt < e.maxAttempts {
			delay := e.backoffDelay(attempt)
			e.logger.Warn("verification retry",
				"company", job.Company,
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return result(model.OutcomeInconclusive)
			case <-time.After(delay):
			}
		}
	}

	e.logger.Debug("verification inconclusive",
		"company", job.Company,
		"error", lastErr,
	)
	return result(model.OutcomeInconclusive)
}

func result(outcome model.VerificationOutcome) model.EnrichmentResult {
	switch outcome {
	case model.OutcomeVerified:
		return model.EnrichmentResult{Outcome: outcome, Confidence: confidenceVerified}
	case model.OutcomeUnverified:
		return model.EnrichmentResult{Outcome: outcome, Confidence: confidenceUnverified}
	}
	return model.EnrichmentResult{Outcome: model.OutcomeInconclusive, Confidence: confidenceInconclusive}
}

// backoffDelay is baseDelay * 2^(attempt-1), capped at maxDelay.
func (e *Enricher) backoffDelay(attempt int) time.Duration {
	delay := e.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= e.maxDelay {
			return e.maxDelay
		}
	}
	if delay > e.maxDelay {
		return e.maxDelay
	}
	return delay
}

// isTransient reports whether the verification error is worth retrying:
// per-call timeouts, 5xx-equivalents and network errors are; not-found and
// caller cancellation are not.
func isTransient(err error) bool {
	if errors.Is(err, model.ErrCompanyNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS) are transient.
	return true
}

// domainOf extracts the registrable-ish host of a listing URL for the
// domain-match check.
func domainOf(rawURL string) string {
	host := rawURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	// Drop a port if present.
	if i := strings.LastIndex(host, ":"); i >= 0 {
		if _, err := strconv.Atoi(host[i+1:]); err == nil {
			host = host[:i]
		}
	}
	return host
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
