// Package scheduler drives the per-source pollers on their intervals.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"github.com/jobsift/jobsift/internal/ingest"
)

// entry pairs a poller with its single-flight guard. running flips to 1
// while a cycle is in progress so a slow source never stacks cycles.
type entry struct {
	poller   *ingest.SourcePoller
	interval time.Duration
	running  atomic.Bool
}

// Scheduler wraps robfig/cron with a per-source single-flight guard and a
// global concurrency budget shared by all sources.
type Scheduler struct {
	cron    *cron.Cron
	entries []*entry
	sem     *semaphore.Weighted
	logger  *slog.Logger

	wg sync.WaitGroup
}

// New creates a scheduler with at most concurrency cycles in flight at once.
func New(concurrency int64, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		sem:    semaphore.NewWeighted(concurrency),
		logger: logger,
	}
}

// Add registers a poller to run every interval. Must be called before Start.
func (s *Scheduler) Add(poller *ingest.SourcePoller, interval time.Duration) {
	s.entries = append(s.entries, &entry{poller: poller, interval: interval})
}

// Start registers every poller with cron and kicks off one immediate cycle
// per source, so a fresh process does not idle until the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, e := range s.entries {
		e := e
		spec := fmt.Sprintf("@every %s", e.interval)
		if _, err := s.cron.AddFunc(spec, func() {
			s.runCycle(ctx, e)
		}); err != nil {
			return fmt.Errorf("scheduling %s: %w", e.poller.Name, err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "sources", len(s.entries))

	for _, e := range s.entries {
		e := e
		go s.runCycle(ctx, e)
	}

	return nil
}

// Stop halts cron and waits for in-flight cycles to drain.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// runCycle runs one poll for a source. Skipped outright if the previous
// cycle of the same source is still running; otherwise it waits its turn
// on the global budget.
func (s *Scheduler) runCycle(ctx context.Context, e *entry) {
	if !e.running.CompareAndSwap(false, true) {
		s.logger.Warn("cycle still in progress, skipping",
			"source", e.poller.Name,
		)
		return
	}
	s.wg.Add(1)
	defer func() {
		e.running.Store(false)
		s.wg.Done()
	}()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	cycleID := uuid.NewString()
	logger := s.logger.With("source", e.poller.Name, "cycle", cycleID)
	started := time.Now()

	stats, err := e.poller.Poll(ctx)
	if err != nil {
		// One failing source never stops the others; its cursor stays
		// put and the next tick retries the same window.
		logger.Error("cycle failed", "error", err, "elapsed", time.Since(started))
		return
	}

	logger.Debug("cycle complete",
		"accepted", stats.Accepted,
		"elapsed", time.Since(started),
	)
}
