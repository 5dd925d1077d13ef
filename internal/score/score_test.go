package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/model"
)

func verdict(name string, score float64, flags ...string) model.FilterVerdict {
	return model.FilterVerdict{Filter: name, Score: score, Flags: flags}
}

func TestCompute_CareerPageScenario(t *testing.T) {
	// Posted 2 days ago, career-page source, verified company, no red
	// flags, 2 green flags: 0.25 + 0.25 + 0.20 + 0.15 + 0.15*0.8333.
	engine := NewEngine(DefaultWeights())

	job := model.CanonicalJob{Source: model.SourceDirect}
	verdicts := []model.FilterVerdict{
		verdict(filter.FreshnessName, 1.0),
		verdict(filter.EmploymentName, 1.0),
		verdict(filter.ScamName, 0.5+0.5*2.0/3.0),
	}
	enrichment := model.EnrichmentResult{Outcome: model.OutcomeVerified, Confidence: 1.0}

	score := engine.Compute(job, verdicts, enrichment)
	assert.InDelta(t, 0.975, float64(score), 0.005)
	assert.Equal(t, model.TrustHigh, score.Level())
}

func TestCompute_SyndicatedFeedScenario(t *testing.T) {
	// Posted 45 days ago, rss source, personal-email contact, vague
	// description: lands in the Low band.
	engine := NewEngine(DefaultWeights())

	job := model.CanonicalJob{Source: model.SourceRSS}
	verdicts := []model.FilterVerdict{
		verdict(filter.FreshnessName, 0.1, "stale"),
		verdict(filter.EmploymentName, 0.5, "unclassified"),
		verdict(filter.ScamName, 0.5-0.5*2.0/3.0, "contact:personal-email", "vague-stack"),
	}
	enrichment := model.EnrichmentResult{Outcome: model.OutcomeInconclusive, Confidence: 0.5}

	score := engine.Compute(job, verdicts, enrichment)
	assert.Less(t, float64(score), 0.4)
	assert.Equal(t, model.TrustLow, score.Level())
}

func TestCompute_AlwaysBounded(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	cases := []struct {
		name       string
		source     model.Source
		verdicts   []model.FilterVerdict
		confidence float64
	}{
		{"all zero", model.SourceRSS, []model.FilterVerdict{
			verdict(filter.FreshnessName, 0),
			verdict(filter.EmploymentName, 0),
			verdict(filter.ScamName, 0),
		}, 0},
		{"all max", model.SourceDirect, []model.FilterVerdict{
			verdict(filter.FreshnessName, 1),
			verdict(filter.EmploymentName, 1),
			verdict(filter.ScamName, 1),
		}, 1},
		{"no verdicts", model.SourceIndeed, nil, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := engine.Compute(
				model.CanonicalJob{Source: tc.source},
				tc.verdicts,
				model.EnrichmentResult{Confidence: tc.confidence},
			)
			assert.GreaterOrEqual(t, float64(score), 0.0)
			assert.LessOrEqual(t, float64(score), 1.0)
		})
	}
}

func TestTrustLevel_Thresholds(t *testing.T) {
	cases := []struct {
		score model.TrustScore
		want  model.TrustLevel
	}{
		{0.0, model.TrustLow},
		{0.39, model.TrustLow},
		{0.4, model.TrustMedium},
		{0.69, model.TrustMedium},
		{0.7, model.TrustHigh},
		{1.0, model.TrustHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.score.Level(), "score %v", tc.score)
	}
}

func TestWeights_NormalizeDefaultsSumToOne(t *testing.T) {
	w, err := DefaultWeights().Normalize()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, w.Source+w.Enrichment+w.Freshness+w.Quality+w.Contact, 1e-9)
}

func TestWeights_NormalizeOverrides(t *testing.T) {
	w, err := Weights{Source: 2, Enrichment: 1, Freshness: 1, Quality: 1, Contact: 1}.Normalize()
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3.0, w.Source, 1e-9)
	assert.InDelta(t, 1.0/6.0, w.Enrichment, 1e-9)
	assert.InDelta(t, 1.0, w.Source+w.Enrichment+w.Freshness+w.Quality+w.Contact, 1e-9)
}

func TestWeights_NormalizeRejectsNegative(t *testing.T) {
	_, err := Weights{Source: -0.1, Enrichment: 0.5, Freshness: 0.2, Quality: 0.2, Contact: 0.2}.Normalize()
	require.Error(t, err)
}

func TestWeights_NormalizeRejectsAllZero(t *testing.T) {
	_, err := Weights{}.Normalize()
	require.Error(t, err)
}

func TestCompute_MissingVerdictsScoreNeutral(t *testing.T) {
	// A record that only ran the freshness filter still gets a bounded
	// score, with the absent signals contributing the neutral 0.5.
	engine := NewEngine(DefaultWeights())

	score := engine.Compute(
		model.CanonicalJob{Source: model.SourceIndeed},
		[]model.FilterVerdict{verdict(filter.FreshnessName, 1.0)},
		model.EnrichmentResult{Outcome: model.OutcomeInconclusive, Confidence: 0.5},
	)

	// 0.25*0.8 + 0.25*0.5 + 0.20*1.0 + 0.15*0.5 + 0.15*0.5
	assert.InDelta(t, 0.675, float64(score), 1e-9)
}
