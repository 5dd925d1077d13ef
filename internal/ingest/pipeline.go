// Package ingest owns the per-listing pipeline and the per-source poller
// that drives it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobsift/jobsift/internal/canonical"
	"github.com/jobsift/jobsift/internal/enrich"
	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/score"
)

// Stats counts what happened to one batch of listings.
type Stats struct {
	Fetched    int
	Malformed  int
	Duplicates int
	Accepted   int
	Failed     int // sink submit errors; the identity key stays consumed
}

// Pipeline processes raw listings one at a time:
// canonicalize → admit → filter → enrich → score → submit.
type Pipeline struct {
	dedup    model.DedupStore
	filters  *filter.Pipeline
	enricher *enrich.Enricher
	engine   *score.Engine
	sink     model.JobSink
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline creates a pipeline wired with all its dependencies.
func NewPipeline(
	dedup model.DedupStore,
	filters *filter.Pipeline,
	enricher *enrich.Enricher,
	engine *score.Engine,
	sink model.JobSink,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		dedup:    dedup,
		filters:  filters,
		enricher: enricher,
		engine:   engine,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs every listing through the pipeline. Malformed listings are
// skipped and counted; duplicates are dropped silently. A dedup store error
// aborts the batch so no listing is accepted without an admission record.
func (p *Pipeline) Process(ctx context.Context, listings []model.RawListing) (Stats, error) {
	stats := Stats{Fetched: len(listings)}

	for _, raw := range listings {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		job, err := canonical.Canonicalize(raw, p.now())
		if err != nil {
			if errors.Is(err, model.ErrMalformedInput) {
				stats.Malformed++
				p.logger.Warn("skipping malformed listing",
					"source", raw.Source,
					"url", raw.URL,
					"error", err,
				)
				continue
			}
			return stats, fmt.Errorf("canonicalizing %s: %w", raw.URL, err)
		}

		admitted, err := p.dedup.Admit(ctx, job.Key)
		if err != nil {
			return stats, fmt.Errorf("admitting %s: %w", job.Key, err)
		}
		if !admitted {
			stats.Duplicates++
			continue
		}

		verdicts := p.filters.Run(job)
		enrichment := p.enricher.Enrich(ctx, job)
		trust := p.engine.Compute(job, verdicts, enrichment)

		if err := p.sink.Submit(ctx, job, trust, verdicts); err != nil {
			stats.Failed++
			p.logger.Error("submitting record",
				"company", job.Company,
				"url", job.URL,
				"error", err,
			)
			continue
		}
		stats.Accepted++
	}

	return stats, nil
}

// SourcePoller owns one configured source: its adapter, its cursor, and the
// shared pipeline. The cursor only moves forward after a fully successful
// cycle, so a failed cycle re-fetches the same window next time.
type SourcePoller struct {
	Name     string
	Kind     string
	adapter  model.SourceAdapter
	pipeline *Pipeline
	logger   *slog.Logger
	now      func() time.Time

	cursor time.Time
}

// NewSourcePoller creates a poller for one source. kind groups sources for
// rate limiting and logging ("careerpage", "aggregator", "rss").
func NewSourcePoller(name, kind string, adapter model.SourceAdapter, pipeline *Pipeline, logger *slog.Logger) *SourcePoller {
	return &SourcePoller{
		Name:     name,
		Kind:     kind,
		adapter:  adapter,
		pipeline: pipeline,
		logger:   logger,
		now:      time.Now,
	}
}

// Poll runs one cycle: fetch everything past the cursor and push it through
// the pipeline. The scheduler guarantees no two Polls of the same source
// overlap, so the cursor needs no locking.
func (p *SourcePoller) Poll(ctx context.Context) (Stats, error) {
	started := p.now()

	listings, err := p.adapter.Fetch(ctx, p.cursor)
	if err != nil {
		return Stats{}, fmt.Errorf("polling %s: %w", p.Name, err)
	}

	stats, err := p.pipeline.Process(ctx, listings)
	if err != nil {
		return stats, fmt.Errorf("polling %s: %w", p.Name, err)
	}

	p.cursor = started

	p.logger.Info("polled source",
		"source", p.Name,
		"kind", p.Kind,
		"fetched", stats.Fetched,
		"accepted", stats.Accepted,
		"duplicates", stats.Duplicates,
		"malformed", stats.Malformed,
		"failed", stats.Failed,
	)

	return stats, nil
}
