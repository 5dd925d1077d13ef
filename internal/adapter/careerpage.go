// Package adapter implements source adapters that fetch raw listings from
// external job sources, plus the retry and rate-limit decorators wrapped
// around them.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// careerPageJob mirrors one job in a hosted career-page board response.
type careerPageJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    careerPageLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	Content     string             `json:"content"`
	UpdatedAt   string             `json:"updated_at"`
}

type careerPageLocation struct {
	Name string `json:"name"`
}

type careerPageResponse struct {
	Jobs []careerPageJob `json:"jobs"`
}

var _ model.SourceAdapter = (*CareerPageAdapter)(nil)

// CareerPageAdapter fetches a company's own hosted job board (greenhouse
// dialect). Listings from here carry the direct source tag.
type CareerPageAdapter struct {
	baseURL     string
	boardToken  string
	companyName string
	contact     string
	client      *http.Client
}

// NewCareerPageAdapter creates an adapter for one company board. contact is
// the published recruiting address, empty if the board does not expose one.
func NewCareerPageAdapter(baseURL, boardToken, companyName, contact string, client *http.Client) *CareerPageAdapter {
	return &CareerPageAdapter{
		baseURL:     baseURL,
		boardToken:  boardToken,
		companyName: companyName,
		contact:     contact,
		client:      client,
	}
}

// Fetch retrieves the board and normalizes its jobs into RawListings.
// The board API has no cursor, so filtering against since happens here.
func (a *CareerPageAdapter) Fetch(ctx context.Context, since time.Time) ([]model.RawListing, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", a.baseURL, a.boardToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("career page fetch for %s: %w", a.boardToken, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("career page fetch for %s: %w", a.boardToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("career page fetch for %s", a.boardToken),
		}
	}

	var board careerPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("career page fetch for %s: %w", a.boardToken, err)
	}

	listings := make([]model.RawListing, 0, len(board.Jobs))
	for _, j := range board.Jobs {
		raw := model.RawListing{
			Source:      model.SourceDirect,
			Title:       j.Title,
			Company:     a.companyName,
			URL:         j.AbsoluteURL,
			Description: j.Content,
			Location:    j.Location.Name,
			Contact:     a.contact,
		}

		if j.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, j.UpdatedAt); err == nil {
				raw.PostedAt = &t
			}
		}

		if !since.IsZero() && raw.PostedAt != nil && !raw.PostedAt.After(since) {
			continue
		}

		listings = append(listings, raw)
	}

	return listings, nil
}
