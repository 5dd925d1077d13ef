package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

const (
	aggregatorPageSize = 50
	aggregatorMaxPages = 3 // max 150 results per cycle
)

// aggregatorResponse mirrors the top-level search response of an
// aggregator API.
type aggregatorResponse struct {
	Results []aggregatorResult `json:"results"`
	Count   int                `json:"count"`
}

type aggregatorResult struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Company      aggregatorCompany `json:"company"`
	Location     aggregatorPlace   `json:"location"`
	SalaryMin    float64           `json:"salary_min"`
	SalaryMax    float64           `json:"salary_max"`
	RedirectURL  string            `json:"redirect_url"`
	Created      string            `json:"created"`
	ContactEmail string            `json:"contact_email"`
}

type aggregatorCompany struct {
	DisplayName string `json:"display_name"`
}

type aggregatorPlace struct {
	DisplayName string `json:"display_name"`
}

var _ model.SourceAdapter = (*AggregatorAdapter)(nil)

// AggregatorAdapter fetches listings from a paged job-search API
// (Adzuna-style). Which aggregator it represents is carried on the source
// tag so the scorer can apply the right reliability prior.
type AggregatorAdapter struct {
	source  model.Source
	baseURL string
	appID   string
	appKey  string
	query   string
	client  *http.Client
}

// NewAggregatorAdapter creates an adapter for one aggregator search query.
func NewAggregatorAdapter(source model.Source, baseURL, appID, appKey, query string, client *http.Client) *AggregatorAdapter {
	return &AggregatorAdapter{
		source:  source,
		baseURL: baseURL,
		appID:   appID,
		appKey:  appKey,
		query:   query,
		client:  client,
	}
}

// Fetch iterates result pages until the API runs dry or the page budget is
// reached. The API sorts by date, so pagination stops early once a page
// falls entirely behind the cursor.
func (a *AggregatorAdapter) Fetch(ctx context.Context, since time.Time) ([]model.RawListing, error) {
	var listings []model.RawListing

	for page := 1; page <= aggregatorMaxPages; page++ {
		batch, err := a.fetchPage(ctx, page)
		if err != nil {
			return listings, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}

		fresh := 0
		for _, raw := range batch {
			if !since.IsZero() && raw.PostedAt != nil && !raw.PostedAt.After(since) {
				continue
			}
			listings = append(listings, raw)
			fresh++
		}

		if fresh == 0 || len(batch) < aggregatorPageSize {
			break
		}
	}

	return listings, nil
}

func (a *AggregatorAdapter) fetchPage(ctx context.Context, page int) ([]model.RawListing, error) {
	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("results_per_page", strconv.Itoa(aggregatorPageSize))
	params.Set("what", a.query)
	params.Set("sort_by", "date")

	reqURL := fmt.Sprintf("%s/search/%d?%s", a.baseURL, page, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("aggregator returned %d", resp.StatusCode),
		}
	}

	var apiResp aggregatorResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	listings := make([]model.RawListing, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		raw := model.RawListing{
			Source:      a.source,
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			URL:         r.RedirectURL,
			Description: r.Description,
			Location:    r.Location.DisplayName,
			Contact:     r.ContactEmail,
			SalaryMin:   int(r.SalaryMin),
			SalaryMax:   int(r.SalaryMax),
		}
		if r.Created != "" {
			if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
				raw.PostedAt = &t
			}
		}
		listings = append(listings, raw)
	}

	return listings, nil
}
