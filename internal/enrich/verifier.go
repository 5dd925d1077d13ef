// Package enrich performs best-effort external verification of a job's
// company. Failures degrade confidence rather than aborting the pipeline.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jobsift/jobsift/internal/model"
)

var _ model.Verifier = (*HTTPVerifier)(nil)

// HTTPVerifier calls a company-verification API (Clearbit-style): given a
// company name and domain it answers whether the company checks out.
type HTTPVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPVerifier creates a verifier against the given provider base URL.
// The client's timeout is managed by the enricher via per-call contexts.
func NewHTTPVerifier(baseURL, apiKey string, client *http.Client) *HTTPVerifier {
	return &HTTPVerifier{baseURL: baseURL, apiKey: apiKey, client: client}
}

// verifyResponse mirrors the provider's JSON answer.
type verifyResponse struct {
	Verified    bool `json:"verified"`
	DomainMatch bool `json:"domain_match"`
}

// Verify checks the company against the provider. Not-found is permanent
// (wrapped ErrCompanyNotFound); 5xx and 429 surface as HTTPError so the
// enricher can retry them.
func (v *HTTPVerifier) Verify(ctx context.Context, company, domain string) (model.VerificationOutcome, error) {
	q := url.Values{}
	q.Set("name", company)
	q.Set("domain", domain)
	reqURL := fmt.Sprintf("%s/v1/companies/verify?%s", v.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.OutcomeInconclusive, fmt.Errorf("verify %s: %w", company, err)
	}
	req.Header.Set("Accept", "application/json")
	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return model.OutcomeInconclusive, fmt.Errorf("verify %s: %w", company, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.OutcomeInconclusive, fmt.Errorf("verify %s: %w", company, model.ErrCompanyNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return model.OutcomeInconclusive, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode != http.StatusOK:
		return model.OutcomeInconclusive, &model.HTTPError{StatusCode: resp.StatusCode}
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return model.OutcomeInconclusive, fmt.Errorf("verify %s: decode: %w", company, err)
	}

	if vr.Verified && vr.DomainMatch {
		return model.OutcomeVerified, nil
	}
	return model.OutcomeUnverified, nil
}

// NopVerifier is used when no provider is configured; every lookup is
// inconclusive and scoring proceeds with reduced confidence.
type NopVerifier struct{}

func (NopVerifier) Verify(context.Context, string, string) (model.VerificationOutcome, error) {
	return model.OutcomeInconclusive, nil
}
