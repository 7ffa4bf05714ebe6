package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

const DefaultRemoteOKAPI = "https://remoteok.com/api"

// RemoteOK API returns a JSON array; the first element is metadata.
type remoteOKJob struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
}

// RemoteOKScraper reads the site-wide RemoteOK feed. The source token is a tag
// ("remoteok:golang"); an empty token keeps every posting.
type RemoteOKScraper struct {
	client     JSONGetter
	base       string
	normalizer Normalizer
}

func NewRemoteOKScraper(client JSONGetter, baseURL string, normalizer Normalizer) *RemoteOKScraper {
	if baseURL == "" {
		baseURL = DefaultRemoteOKAPI
	}
	return &RemoteOKScraper{client: client, base: baseURL, normalizer: normalizer}
}

func (r *RemoteOKScraper) FetchJobs(ctx context.Context, tag string) ([]posting.Posting, error) {
	var data []remoteOKJob
	if err := r.client.GetJSON(ctx, r.base, &data); err != nil {
		return nil, err
	}

	var jobs []posting.Posting
	for _, j := range data {
		// metadata element
		if j.Slug == "" || j.URL == "" {
			continue
		}
		if tag != "" && !hasTag(j.Tags, tag) {
			continue
		}
		id := j.ID
		if id == "" {
			id = j.Slug
		}
		p := posting.Posting{
			ID:          id,
			Title:       strings.TrimSpace(j.Position),
			URL:         j.URL,
			PublishedAt: parseRemoteOKDate(j.Date),
			Location:    remoteOKLocation(j.Location),
		}
		if r.normalizer != nil && j.Description != "" {
			if text, err := r.normalizer.Normalize(j.Description); err == nil {
				p.Content = text
			}
		}
		jobs = append(jobs, p)
	}
	return jobs, nil
}

// every RemoteOK listing is remote; an empty location means worldwide
func remoteOKLocation(loc string) string {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "Remote"
	}
	if !strings.Contains(strings.ToLower(loc), "remote") {
		return "Remote - " + loc
	}
	return loc
}

func hasTag(tags []string, want string) bool {
	wantLower := strings.ToLower(want)
	for _, t := range tags {
		if strings.ToLower(t) == wantLower {
			return true
		}
	}
	return false
}

func parseRemoteOKDate(val string) time.Time {
	if val == "" {
		return time.Time{}
	}
	// Example: "2023-12-20T04:02:19+00:00"
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}
	}
	return t
}
