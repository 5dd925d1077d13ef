package enrich

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedVerifier replays a sequence of (outcome, err) answers.
type scriptedVerifier struct {
	answers []struct {
		outcome model.VerificationOutcome
		err     error
	}
	calls atomic.Int32
}

func (v *scriptedVerifier) Verify(_ context.Context, _, _ string) (model.VerificationOutcome, error) {
	i := int(v.calls.Add(1)) - 1
	if i >= len(v.answers) {
		i = len(v.answers) - 1
	}
	a := v.answers[i]
	return a.outcome, a.err
}

func scripted(answers ...struct {
	outcome model.VerificationOutcome
	err     error
}) *scriptedVerifier {
	return &scriptedVerifier{answers: answers}
}

func answer(outcome model.VerificationOutcome, err error) struct {
	outcome model.VerificationOutcome
	err     error
} {
	return struct {
		outcome model.VerificationOutcome
		err     error
	}{outcome, err}
}

func newTestEnricher(v model.Verifier) *Enricher {
	return NewEnricher(v, 50*time.Millisecond, 3, time.Millisecond, 4*time.Millisecond, discardLogger())
}

func sampleJob() model.CanonicalJob {
	return model.CanonicalJob{
		Company: "Acme Corp",
		URL:     "https://jobs.acme.com/listings/1",
	}
}

func TestEnrich_VerifiedFullConfidence(t *testing.T) {
	v := scripted(answer(model.OutcomeVerified, nil))
	res := newTestEnricher(v).Enrich(context.Background(), sampleJob())

	if res.Outcome != model.OutcomeVerified || res.Confidence != 1.0 {
		t.Errorf("result = %+v, want verified/1.0", res)
	}
	if v.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", v.calls.Load())
	}
}

func TestEnrich_TransientRetriedThenSuccess(t *testing.T) {
	v := scripted(
		answer(model.OutcomeInconclusive, &model.HTTPError{StatusCode: 503}),
		answer(model.OutcomeVerified, nil),
	)
	res := newTestEnricher(v).Enrich(context.Background(), sampleJob())

	if res.Outcome != model.OutcomeVerified {
		t.Errorf("outcome = %s, want verified after retry", res.Outcome)
	}
	if v.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", v.calls.Load())
	}
}

func TestEnrich_ExhaustedRetriesInconclusive(t *testing.T) {
	v := scripted(answer(model.OutcomeInconclusive, &model.HTTPError{StatusCode: 500}))
	res := newTestEnricher(v).Enrich(context.Background(), sampleJob())

	if res.Outcome != model.OutcomeInconclusive || res.Confidence != 0.5 {
		t.Errorf("result = %+v, want inconclusive/0.5", res)
	}
	if v.calls.Load() != 3 {
		t.Errorf("calls = %d, want all 3 attempts", v.calls.Load())
	}
}

func TestEnrich_NotFoundNotRetried(t *testing.T) {
	v := scripted(answer(model.OutcomeInconclusive, model.ErrCompanyNotFound))
	res := newTestEnricher(v).Enrich(context.Background(), sampleJob())

	if res.Outcome != model.OutcomeInconclusive || res.Confidence != 0.5 {
		t.Errorf("result = %+v, want inconclusive/0.5", res)
	}
	if v.calls.Load() != 1 {
		t.Errorf("calls = %d, want no retries on permanent failure", v.calls.Load())
	}
}

func TestEnrich_TimeoutsDegradeToInconclusive(t *testing.T) {
	// Verifier that always outlives the per-call timeout.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	verifier := NewHTTPVerifier(srv.URL, "", srv.Client())
	e := NewEnricher(verifier, 20*time.Millisecond, 3, time.Millisecond, 2*time.Millisecond, discardLogger())

	res := e.Enrich(context.Background(), sampleJob())
	if res.Outcome != model.OutcomeInconclusive || res.Confidence != 0.5 {
		t.Errorf("result = %+v, want inconclusive/0.5 after 3 timeouts", res)
	}
}

func TestEnrich_UnverifiedLowConfidence(t *testing.T) {
	v := scripted(answer(model.OutcomeUnverified, nil))
	res := newTestEnricher(v).Enrich(context.Background(), sampleJob())

	if res.Outcome != model.OutcomeUnverified {
		t.Errorf("outcome = %s, want unverified", res.Outcome)
	}
	if res.Confidence >= 0.5 {
		t.Errorf("confidence = %v, want below inconclusive", res.Confidence)
	}
}

func TestEnrich_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := scripted(answer(model.OutcomeInconclusive, &model.HTTPError{StatusCode: 500}))
	res := newTestEnricher(v).Enrich(ctx, sampleJob())

	if res.Outcome != model.OutcomeInconclusive {
		t.Errorf("outcome = %s, want inconclusive", res.Outcome)
	}
	if v.calls.Load() > 1 {
		t.Errorf("calls = %d, want no retries after cancellation", v.calls.Load())
	}
}

func TestHTTPVerifier_Outcomes(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		want    model.VerificationOutcome
		wantErr bool
	}{
		{"verified", http.StatusOK, `{"verified":true,"domain_match":true}`, model.OutcomeVerified, false},
		{"domain mismatch", http.StatusOK, `{"verified":true,"domain_match":false}`, model.OutcomeUnverified, false},
		{"unverified", http.StatusOK, `{"verified":false,"domain_match":false}`, model.OutcomeUnverified, false},
		{"not found", http.StatusNotFound, ``, model.OutcomeInconclusive, true},
		{"server error", http.StatusInternalServerError, ``, model.OutcomeInconclusive, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			v := NewHTTPVerifier(srv.URL, "key", srv.Client())
			outcome, err := v.Verify(context.Background(), "Acme Corp", "acme.com")

			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
			if outcome != tc.want {
				t.Errorf("outcome = %s, want %s", outcome, tc.want)
			}
		})
	}
}

func TestHTTPVerifier_SendsQueryAndAuth(t *testing.T) {
	var gotAuth, gotName, gotDomain string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotName = r.URL.Query().Get("name")
		gotDomain = r.URL.Query().Get("domain")
		io.WriteString(w, `{"verified":true,"domain_match":true}`)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, "secret", srv.Client())
	if _, err := v.Verify(context.Background(), "Acme Corp", "acme.com"); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotName != "Acme Corp" || gotDomain != "acme.com" {
		t.Errorf("query = (%q, %q)", gotName, gotDomain)
	}
}

func TestDomainOf(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://jobs.acme.com/listings/1", "jobs.acme.com"},
		{"https://www.acme.com/careers?id=1", "acme.com"},
		{"http://acme.com:8080/x", "acme.com"},
	}
	for _, tc := range cases {
		if got := domainOf(tc.in); got != tc.want {
			t.Errorf("domainOf(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
