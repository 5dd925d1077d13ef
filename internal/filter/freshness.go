package filter

import (
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// FreshnessName is the stable verdict name of the freshness filter.
const FreshnessName = "freshness"

var _ Filter = (*FreshnessFilter)(nil)

// FreshnessFilter scores a job by the age of its posting date. Older
// listings are more likely to be ghost jobs kept live to harvest resumes.
type FreshnessFilter struct {
	staleAge time.Duration
	now      func() time.Time
}

// NewFreshnessFilter creates the filter. staleAge is the boundary past
// which a listing is flagged "stale" (default 30 days via config).
func NewFreshnessFilter(staleAge time.Duration) *FreshnessFilter {
	return &FreshnessFilter{staleAge: staleAge, now: time.Now}
}

func (f *FreshnessFilter) Name() string { return FreshnessName }

// Evaluate maps age to a tiered score: under 7 days 1.0, under 14 days
// 0.7, up to the stale boundary 0.4, beyond it 0.1. Monotonically
// non-increasing in age. A job without a posting date scores the middle
// tier with an "unknown-age" flag: unknown age is neither fresh nor
// provably stale.
func (f *FreshnessFilter) Evaluate(job model.CanonicalJob) model.FilterVerdict {
	if job.PostedAt.IsZero() {
		return model.FilterVerdict{
			Filter: FreshnessName,
			Score:  0.4,
			Flags:  []string{"unknown-age"},
		}
	}

	age := f.now().Sub(job.PostedAt)

	var score float64
	var flags []string
	switch {
	case age < 7*24*time.Hour:
		score = 1.0
	case age < 14*24*time.Hour:
		score = 0.7
	case age <= f.staleAge:
		score = 0.4
	default:
		score = 0.1
		flags = []string{"stale"}
	}

	return model.FilterVerdict{Filter: FreshnessName, Score: score, Flags: flags}
}
