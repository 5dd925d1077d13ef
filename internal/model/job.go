package model

import (
	"context"
	"encoding/hex"
	"time"
)

// Source identifies where a listing was collected from.
type Source string

const (
	SourceDirect     Source = "direct" // company career page
	SourceBloomberry Source = "bloomberry"
	SourceLinkedIn   Source = "linkedin"
	SourceIndeed     Source = "indeed"
	SourceRSS        Source = "rss"
)

// Reliability returns the static trust prior for a source: career pages are
// first-party, aggregator APIs second-hand, syndicated feeds the least
// accountable.
func (s Source) Reliability() float64 {
	switch s {
	case SourceDirect:
		return 1.0
	case SourceBloomberry, SourceLinkedIn, SourceIndeed:
		return 0.8
	case SourceRSS:
		return 0.4
	}
	return 0.4
}

// ParseSource converts a raw string to a Source, returning false for unknown values.
func ParseSource(s string) (Source, bool) {
	switch Source(s) {
	case SourceDirect, SourceBloomberry, SourceLinkedIn, SourceIndeed, SourceRSS:
		return Source(s), true
	}
	return "", false
}

// EmploymentType classifies the employment arrangement of a listing.
type EmploymentType string

const (
	EmploymentW2Fulltime EmploymentType = "w2_fulltime"
	EmploymentW2Contract EmploymentType = "w2_contract"
	EmploymentC2C        EmploymentType = "c2c"
	Employment1099       EmploymentType = "1099"
	EmploymentUnknown    EmploymentType = "unknown"
)

// IdentityKey is the deduplication unit: a sha256 hash over the normalized
// URL, title, and company of a listing.
type IdentityKey [32]byte

// String returns the hex encoding used by the dedup stores and the DB.
func (k IdentityKey) String() string {
	return hex.EncodeToString(k[:])
}

// RawListing is a source-native record as returned by an adapter. It is
// opaque to downstream stages until canonicalized.
type RawListing struct {
	Source      Source
	Title       string
	Company     string
	URL         string
	Description string
	Location    string
	Contact     string // contact e-mail or instruction text, if the source provides one
	SalaryMin   int
	SalaryMax   int
	PostedAt    *time.Time // nullable: not every source provides it
}

// CanonicalJob is the normalized, immutable form of a listing. It is created
// once per accepted identity key; a re-ingested listing with the same key is
// dropped by the deduplicator, not merged.
type CanonicalJob struct {
	Key         IdentityKey
	Source      Source
	Title       string
	Company     string
	URL         string
	Description string
	Location    string
	Contact     string
	SalaryMin   int
	SalaryMax   int
	PostedAt    time.Time // UTC; zero when the source did not provide it
	ScrapedAt   time.Time // UTC
}

// FilterVerdict is one filter's contribution: a score in [0,1], the filter's
// stable name, and zero or more human-readable flags. The employment
// classifier additionally sets Class.
type FilterVerdict struct {
	Filter string
	Score  float64
	Class  EmploymentType
	Flags  []string
}

// VerificationOutcome is the result of an external company check.
type VerificationOutcome string

const (
	OutcomeVerified     VerificationOutcome = "verified"
	OutcomeUnverified   VerificationOutcome = "unverified"
	OutcomeInconclusive VerificationOutcome = "inconclusive"
)

// EnrichmentResult carries the verification outcome and the confidence
// multiplier applied to enrichment-dependent signals.
type EnrichmentResult struct {
	Outcome    VerificationOutcome
	Confidence float64 // in [0,1]
}

// TrustLevel is the discretized trust bucket, derived from the final score
// at read time and never persisted redundantly.
type TrustLevel string

const (
	TrustHigh   TrustLevel = "high"
	TrustMedium TrustLevel = "medium"
	TrustLow    TrustLevel = "low"
)

// TrustScore is the bounded combined score in [0,1].
type TrustScore float64

// Level buckets the score: High >= 0.7, Medium >= 0.4, Low below.
func (s TrustScore) Level() TrustLevel {
	switch {
	case s >= 0.7:
		return TrustHigh
	case s >= 0.4:
		return TrustMedium
	}
	return TrustLow
}

// SourceAdapter fetches raw listings from one external source.
// since is a cursor: adapters return only listings newer than it when the
// source supports that, and everything otherwise.
type SourceAdapter interface {
	Fetch(ctx context.Context, since time.Time) ([]RawListing, error)
}

// DedupStore is the shared set of accepted identity keys. Admit must be
// atomic under concurrent callers: test-and-insert in one step.
type DedupStore interface {
	// Admit returns true exactly once per key; false means duplicate.
	// A store error fails closed (wrapped ErrStoreUnavailable) and the
	// record is not admitted.
	Admit(ctx context.Context, key IdentityKey) (bool, error)
	// IsDuplicate is a read-only probe for backfill tooling.
	IsDuplicate(ctx context.Context, key IdentityKey) (bool, error)
}

// JobSink is the downstream storage collaborator. Submit is called once per
// accepted record; the sink owns persistence and query semantics.
type JobSink interface {
	Submit(ctx context.Context, job CanonicalJob, score TrustScore, verdicts []FilterVerdict) error
}

// Verifier checks a company's external legitimacy (domain match, presence).
type Verifier interface {
	Verify(ctx context.Context, company, domain string) (VerificationOutcome, error)
}
