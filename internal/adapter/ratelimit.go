package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// KindRateLimiter enforces a minimum delay between requests to the same
// source backend. All adapters hitting one backend share an instance, so a
// burst of scheduled fetches does not hammer a provider.
type KindRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: source kind
	minDelay time.Duration
}

func NewKindRateLimiter(minDelay time.Duration) *KindRateLimiter {
	return &KindRateLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given kind. Returns an error if the context is cancelled while waiting.
func (r *KindRateLimiter) Wait(ctx context.Context, kind string) error {
	r.mu.Lock()
	last, ok := r.lastCall[kind]
	now := time.Now()

	if !ok {
		r.lastCall[kind] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[kind] = now
		r.mu.Unlock()
		return nil
	}

	remaining := r.minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", kind, ctx.Err())
	case <-time.After(remaining):
	}

	r.mu.Lock()
	r.lastCall[kind] = time.Now()
	r.mu.Unlock()

	return nil
}

var _ model.SourceAdapter = (*RateLimitedAdapter)(nil)

// RateLimitedAdapter is a decorator that waits on the shared limiter
// before delegating to the wrapped adapter.
type RateLimitedAdapter struct {
	inner   model.SourceAdapter
	limiter *KindRateLimiter
	kind    string
}

func NewRateLimitedAdapter(inner model.SourceAdapter, limiter *KindRateLimiter, kind string) *RateLimitedAdapter {
	return &RateLimitedAdapter{inner: inner, limiter: limiter, kind: kind}
}

func (a *RateLimitedAdapter) Fetch(ctx context.Context, since time.Time) ([]model.RawListing, error) {
	if err := a.limiter.Wait(ctx, a.kind); err != nil {
		return nil, err
	}
	return a.inner.Fetch(ctx, since)
}
