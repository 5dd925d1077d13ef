package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobsift/jobsift/internal/enrich"
	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/score"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blockingAdapter parks in Fetch until released and counts concurrent calls.
type blockingAdapter struct {
	release     chan struct{}
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	err         error
}

func newBlockingAdapter() *blockingAdapter {
	return &blockingAdapter{release: make(chan struct{})}
}

func (a *blockingAdapter) Fetch(ctx context.Context, _ time.Time) ([]model.RawListing, error) {
	a.calls.Add(1)
	cur := a.inFlight.Add(1)
	for {
		prev := a.maxInFlight.Load()
		if cur <= prev || a.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}
	defer a.inFlight.Add(-1)

	select {
	case <-a.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return nil, a.err
}

type nullStore struct{}

func (nullStore) Admit(context.Context, model.IdentityKey) (bool, error)       { return true, nil }
func (nullStore) IsDuplicate(context.Context, model.IdentityKey) (bool, error) { return false, nil }

type nullSink struct{}

func (nullSink) Submit(context.Context, model.CanonicalJob, model.TrustScore, []model.FilterVerdict) error {
	return nil
}

func testPoller(name string, adapter model.SourceAdapter) *ingest.SourcePoller {
	filters := filter.NewPipeline(filter.NewFreshnessFilter(30 * 24 * time.Hour))
	enricher := enrich.NewEnricher(enrich.NopVerifier{}, time.Second, 1, time.Millisecond, time.Millisecond, discardLogger())
	pipeline := ingest.NewPipeline(nullStore{}, filters, enricher, score.NewEngine(score.DefaultWeights()), nullSink{}, discardLogger())
	return ingest.NewSourcePoller(name, "careerpage", adapter, pipeline, discardLogger())
}

func TestRunCycle_SingleFlightPerSource(t *testing.T) {
	adapter := newBlockingAdapter()
	s := New(4, discardLogger())
	e := &entry{poller: testPoller("slow", adapter), interval: time.Hour}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runCycle(context.Background(), e)
		}()
	}

	// Let the first cycle reach Fetch, then release everything.
	time.Sleep(20 * time.Millisecond)
	close(adapter.release)
	wg.Wait()

	if got := adapter.calls.Load(); got != 1 {
		t.Errorf("Fetch called %d times, want 1 (overlapping cycles skipped)", got)
	}
}

func TestRunCycle_GlobalBudgetBoundsConcurrency(t *testing.T) {
	adapter := newBlockingAdapter()
	s := New(2, discardLogger())

	entries := make([]*entry, 4)
	for i := range entries {
		entries[i] = &entry{poller: testPoller("src", adapter), interval: time.Hour}
	}

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e *entry) {
			defer wg.Done()
			s.runCycle(context.Background(), e)
		}(e)
	}

	time.Sleep(20 * time.Millisecond)
	close(adapter.release)
	wg.Wait()

	if got := adapter.maxInFlight.Load(); got > 2 {
		t.Errorf("max concurrent fetches = %d, want <= 2", got)
	}
	if got := adapter.calls.Load(); got != 4 {
		t.Errorf("Fetch called %d times, want 4", got)
	}
}

func TestRunCycle_FailureDoesNotBlockNextCycle(t *testing.T) {
	adapter := newBlockingAdapter()
	adapter.err = errors.New("upstream 500")
	close(adapter.release)

	s := New(1, discardLogger())
	e := &entry{poller: testPoller("flaky", adapter), interval: time.Hour}

	s.runCycle(context.Background(), e)
	s.runCycle(context.Background(), e)

	if got := adapter.calls.Load(); got != 2 {
		t.Errorf("Fetch called %d times, want 2 (guard released after failure)", got)
	}
}

func TestStartStop_RunsImmediateCycleAndDrains(t *testing.T) {
	adapter := newBlockingAdapter()
	s := New(2, discardLogger())
	s.Add(testPoller("a", adapter), time.Hour)
	s.Add(testPoller("b", adapter), time.Hour)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Both immediate cycles should be in flight before the first tick.
	deadline := time.Now().Add(time.Second)
	for adapter.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := adapter.calls.Load(); got != 2 {
		t.Fatalf("immediate cycles = %d, want 2", got)
	}

	close(adapter.release)
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not drain in time")
	}
}
