package adapter

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// rssFeed mirrors the subset of RSS 2.0 that job feeds actually fill in.
type rssFeed struct {
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Author      string `xml:"author"`
	Company     string `xml:"company"` // common job-feed extension, often absent
}

// pubDateLayouts are tried in order; feeds are inconsistent about zone names.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
}

var _ model.SourceAdapter = (*RSSAdapter)(nil)

// RSSAdapter fetches a syndicated job feed. Feeds are the least
// accountable source kind; the scorer's reliability prior reflects that,
// not the adapter.
type RSSAdapter struct {
	feedURL string
	company string // feed-level company override, empty for mixed feeds
	client  *http.Client
}

func NewRSSAdapter(feedURL, company string, client *http.Client) *RSSAdapter {
	return &RSSAdapter{feedURL: feedURL, company: company, client: client}
}

// Fetch downloads and parses the feed, dropping items at or before the
// cursor when they carry a parseable pubDate.
func (a *RSSAdapter) Fetch(ctx context.Context, since time.Time) ([]model.RawListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rss fetch %s: %w", a.feedURL, err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss fetch %s: %w", a.feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("rss fetch %s", a.feedURL),
		}
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("rss fetch %s: %w", a.feedURL, err)
	}

	listings := make([]model.RawListing, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		company := a.company
		if company == "" {
			company = item.Company
		}

		raw := model.RawListing{
			Source:      model.SourceRSS,
			Title:       item.Title,
			Company:     company,
			URL:         item.Link,
			Description: item.Description,
			Contact:     item.Author,
			PostedAt:    parsePubDate(item.PubDate),
		}

		if !since.IsZero() && raw.PostedAt != nil && !raw.PostedAt.After(since) {
			continue
		}

		listings = append(listings, raw)
	}

	return listings, nil
}

func parsePubDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}
