package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/model"
)

var _ model.JobSink = (*PostgresSink)(nil)

// PostgresSink inserts accepted records into the jobs table. The query/API
// service reads from the same table; this side only ever inserts.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to databaseURL and verifies connectivity.
func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

// verdictFlags is the JSONB shape stored in jobs.flags: filter name to its
// recorded flags, only for filters that flagged anything.
func verdictFlags(verdicts []model.FilterVerdict) map[string][]string {
	flags := make(map[string][]string)
	for _, v := range verdicts {
		if len(v.Flags) > 0 {
			flags[v.Filter] = v.Flags
		}
	}
	return flags
}

func employmentClass(verdicts []model.FilterVerdict) model.EmploymentType {
	for _, v := range verdicts {
		if v.Filter == filter.EmploymentName && v.Class != "" {
			return v.Class
		}
	}
	return model.EmploymentUnknown
}

// Submit inserts the record. The unique url_hash column is a second guard
// behind the deduplicator, so a conflicting insert is a no-op, not an error.
func (s *PostgresSink) Submit(ctx context.Context, job model.CanonicalJob, score model.TrustScore, verdicts []model.FilterVerdict) error {
	flagsJSON, err := json.Marshal(verdictFlags(verdicts))
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}

	var postedAt *time.Time
	if !job.PostedAt.IsZero() {
		postedAt = &job.PostedAt
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (
		   url_hash, source, source_url, title, company_name, location,
		   description, salary_min, salary_max, employment_type,
		   trust_score, flags, posted_at, scraped_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14)
		 ON CONFLICT (url_hash) DO NOTHING`,
		job.Key.String(), string(job.Source), job.URL, job.Title, job.Company,
		job.Location, job.Description, job.SalaryMin, job.SalaryMax,
		string(employmentClass(verdicts)), float64(score), string(flagsJSON),
		postedAt, job.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.Key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
