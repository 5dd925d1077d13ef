package filter

import (
	"testing"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// stubFilter returns a fixed verdict and records how it was called.
type stubFilter struct {
	name  string
	score float64
}

func (s *stubFilter) Name() string { return s.name }

func (s *stubFilter) Evaluate(_ model.CanonicalJob) model.FilterVerdict {
	return model.FilterVerdict{Filter: s.name, Score: s.score}
}

func TestPipeline_VerdictsInRegistrationOrder(t *testing.T) {
	p := NewPipeline(
		&stubFilter{name: "first", score: 0.1},
		&stubFilter{name: "second", score: 0.2},
		&stubFilter{name: "third", score: 0.3},
	)

	verdicts := p.Run(model.CanonicalJob{})
	if len(verdicts) != 3 {
		t.Fatalf("got %d verdicts, want 3", len(verdicts))
	}
	for i, want := range []string{"first", "second", "third"} {
		if verdicts[i].Filter != want {
			t.Errorf("verdicts[%d].Filter = %s, want %s", i, verdicts[i].Filter, want)
		}
	}
}

func TestPipeline_DefaultFiltersProduceNamedVerdicts(t *testing.T) {
	p := NewPipeline(
		NewFreshnessFilter(30*24*time.Hour),
		NewEmploymentClassifier(),
		NewScamDetector(),
	)

	job := model.CanonicalJob{
		Title:       "Backend Engineer",
		URL:         "https://jobs.acme.com/1",
		Description: "Full-time role. We run Postgres.",
		PostedAt:    time.Now().UTC().Add(-48 * time.Hour),
	}

	verdicts := p.Run(job)
	names := map[string]bool{}
	for _, v := range verdicts {
		names[v.Filter] = true
		if v.Score < 0 || v.Score > 1 {
			t.Errorf("%s score %v out of [0,1]", v.Filter, v.Score)
		}
	}
	for _, want := range []string{FreshnessName, EmploymentName, ScamName} {
		if !names[want] {
			t.Errorf("missing verdict %s", want)
		}
	}
}

func TestPipeline_EmptyPipeline(t *testing.T) {
	p := NewPipeline()
	if got := p.Run(model.CanonicalJob{}); len(got) != 0 {
		t.Errorf("got %d verdicts, want 0", len(got))
	}
}
