// Package score combines filter and enrichment signals into one bounded
// trust score.
package score

import (
	"fmt"

	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/model"
)

// Weights is the per-signal weighting of the trust score. Loaded once at
// startup and treated as immutable afterwards.
type Weights struct {
	Source     float64
	Enrichment float64
	Freshness  float64
	Quality    float64
	Contact    float64
}

// DefaultWeights is the standard split across the five signals.
func DefaultWeights() Weights {
	return Weights{
		Source:     0.25,
		Enrichment: 0.25,
		Freshness:  0.20,
		Quality:    0.15,
		Contact:    0.15,
	}
}

// Normalize validates overridden weights and rescales them to sum to 1.0.
// Called once at config load, never per record.
func (w Weights) Normalize() (Weights, error) {
	for name, v := range map[string]float64{
		"source": w.Source, "enrichment": w.Enrichment, "freshness": w.Freshness,
		"quality": w.Quality, "contact": w.Contact,
	} {
		if v < 0 {
			return Weights{}, fmt.Errorf("trust weight %s must be non-negative, got %v", name, v)
		}
	}

	sum := w.Source + w.Enrichment + w.Freshness + w.Quality + w.Contact
	if sum <= 0 {
		return Weights{}, fmt.Errorf("trust weights must sum to a positive value")
	}

	return Weights{
		Source:     w.Source / sum,
		Enrichment: w.Enrichment / sum,
		Freshness:  w.Freshness / sum,
		Quality:    w.Quality / sum,
		Contact:    w.Contact / sum,
	}, nil
}

// Engine computes trust scores from a fixed weight set.
type Engine struct {
	weights Weights
}

func NewEngine(weights Weights) *Engine {
	return &Engine{weights: weights}
}

// neutral is used when a verdict is absent from the input, so a partial
// filter set still yields a bounded score.
const neutral = 0.5

// Compute combines the signals into a clamped [0,1] score:
// source reliability, enrichment confidence, the freshness verdict, the
// employment/description quality composite (classifier confidence), and
// contact legitimacy (the scam detector's score).
func (e *Engine) Compute(job model.CanonicalJob, verdicts []model.FilterVerdict, enrichment model.EnrichmentResult) model.TrustScore {
	freshness := verdictScore(verdicts, filter.FreshnessName)
	quality := verdictScore(verdicts, filter.EmploymentName)
	contact := verdictScore(verdicts, filter.ScamName)

	sum := e.weights.Source*job.Source.Reliability() +
		e.weights.Enrichment*enrichment.Confidence +
		e.weights.Freshness*freshness +
		e.weights.Quality*quality +
		e.weights.Contact*contact

	if sum < 0 {
		sum = 0
	}
	if sum > 1 {
		sum = 1
	}
	return model.TrustScore(sum)
}

func verdictScore(verdicts []model.FilterVerdict, name string) float64 {
	for _, v := range verdicts {
		if v.Filter == name {
			return v.Score
		}
	}
	return neutral
}
