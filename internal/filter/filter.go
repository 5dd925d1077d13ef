// Package filter implements the ordered chain of independent scoring
// filters applied to every canonical job.
package filter

import (
	"sync"

	"github.com/jobsift/jobsift/internal/model"
)

// Filter is one independent scoring unit. New signals are added by
// registering another implementation with the pipeline, not by branching
// inside an existing filter.
type Filter interface {
	// Name is the stable identifier carried on the verdict.
	Name() string
	Evaluate(job model.CanonicalJob) model.FilterVerdict
}

// Pipeline runs its filters over a job. Filters never see each other's
// verdicts, so they run concurrently; verdict order matches registration
// order regardless.
type Pipeline struct {
	filters []Filter
}

func NewPipeline(filters ...Filter) *Pipeline {
	return &Pipeline{filters: filters}
}

// Run evaluates every filter against job and returns their verdicts in
// registration order.
func (p *Pipeline) Run(job model.CanonicalJob) []model.FilterVerdict {
	verdicts := make([]model.FilterVerdict, len(p.filters))

	var wg sync.WaitGroup
	for i, f := range p.filters {
		wg.Add(1)
		go func(i int, f Filter) {
			defer wg.Done()
			verdicts[i] = f.Evaluate(job)
		}(i, f)
	}
	wg.Wait()

	return verdicts
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
