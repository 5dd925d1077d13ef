// Package canonical normalizes raw listings into their uniform shape and
// computes the identity key used for deduplication.
package canonical

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"

	"github.com/jobsift/jobsift/internal/model"

	"time"
)

// trackingParams are query parameters stripped before hashing so the same
// listing reached via different campaign links dedups to one key.
var trackingParams = map[string]bool{
	"gclid":  true,
	"fbclid": true,
	"msclkid": true,
	"mc_cid": true,
	"mc_eid": true,
	"ref":    true,
	"src":    true,
}

// Canonicalize converts a raw listing into an immutable CanonicalJob.
// Returns a wrapped ErrMalformedInput when title or url is absent.
func Canonicalize(raw model.RawListing, now time.Time) (model.CanonicalJob, error) {
	title := normalizeText(raw.Title)
	company := normalizeText(raw.Company)

	if title == "" {
		return model.CanonicalJob{}, fmt.Errorf("%w: missing title", model.ErrMalformedInput)
	}
	if strings.TrimSpace(raw.URL) == "" {
		return model.CanonicalJob{}, fmt.Errorf("%w: missing url", model.ErrMalformedInput)
	}

	normURL, err := normalizeURL(raw.URL)
	if err != nil {
		return model.CanonicalJob{}, fmt.Errorf("%w: bad url %q: %v", model.ErrMalformedInput, raw.URL, err)
	}

	job := model.CanonicalJob{
		Key:         Key(normURL, title, company),
		Source:      raw.Source,
		Title:       title,
		Company:     company,
		URL:         normURL,
		Description: strings.TrimSpace(raw.Description),
		Location:    normalizeText(raw.Location),
		Contact:     strings.TrimSpace(raw.Contact),
		SalaryMin:   raw.SalaryMin,
		SalaryMax:   raw.SalaryMax,
		ScrapedAt:   now.UTC(),
	}
	if raw.PostedAt != nil {
		job.PostedAt = raw.PostedAt.UTC()
	}
	return job, nil
}

// Key computes the identity key over the already-normalized URL, title and
// company. Case differences never produce distinct keys.
func Key(normURL, title, company string) model.IdentityKey {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(normURL)))
	h.Write([]byte{'|'})
	h.Write([]byte(strings.ToLower(title)))
	h.Write([]byte{'|'})
	h.Write([]byte(strings.ToLower(company)))

	var key model.IdentityKey
	copy(key[:], h.Sum(nil))
	return key
}

// normalizeText trims and collapses internal whitespace runs to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeURL lowercases the host, drops the fragment and tracking query
// parameters, and strips a trailing slash from the path. Remaining query
// parameters are re-encoded in sorted order so parameter ordering is not
// identity-relevant.
func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in %q", raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	for param := range q {
		if trackingParams[param] || strings.HasPrefix(strings.ToLower(param), "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode() // sorted by key

	return u.String(), nil
}
