// Package sink implements the storage collaborators accepted records are
// handed to.
package sink

import (
	"context"
	"log/slog"

	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/model"
)

var _ model.JobSink = (*LogSink)(nil)

// LogSink writes accepted records to the logger as structured messages.
// Used for one-shot runs and when no database is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Submit logs the record with its score, level, class and any flags.
// Returns nil (stdout logging does not fail).
func (s *LogSink) Submit(_ context.Context, job model.CanonicalJob, score model.TrustScore, verdicts []model.FilterVerdict) error {
	args := []any{
		"company", job.Company,
		"title", job.Title,
		"url", job.URL,
		"source", job.Source,
		"trust_score", float64(score),
		"trust_level", score.Level(),
	}
	for _, v := range verdicts {
		if v.Filter == filter.EmploymentName {
			args = append(args, "employment_type", v.Class)
		}
		if len(v.Flags) > 0 {
			args = append(args, v.Filter+"_flags", v.Flags)
		}
	}
	s.logger.Info("job scored", args...)
	return nil
}
