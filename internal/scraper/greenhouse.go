package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

const DefaultGreenhouseAPI = "https://boards-api.greenhouse.io/v1/boards"

// JSONGetter is satisfied by *httpx.PoliteClient.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, v any) error
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	Content     string `json:"content"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

type GreenhouseScraper struct {
	client     JSONGetter
	base       string
	normalizer Normalizer
}

func NewGreenhouseScraper(client JSONGetter, baseURL string, normalizer Normalizer) *GreenhouseScraper {
	if baseURL == "" {
		baseURL = DefaultGreenhouseAPI
	}
	return &GreenhouseScraper{
		client:     client,
		base:       strings.TrimSuffix(baseURL, "/"),
		normalizer: normalizer,
	}
}

// FetchJobs lists a board's jobs. Greenhouse only exposes updated_at, which is
// used as the published time.
func (g *GreenhouseScraper) FetchJobs(ctx context.Context, token string) ([]posting.Posting, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("greenhouse: empty board token")
	}
	apiURL := fmt.Sprintf("%s/%s/jobs?content=true", g.base, url.PathEscape(token))

	var resp greenhouseResponse
	if err := g.client.GetJSON(ctx, apiURL, &resp); err != nil {
		return nil, err
	}

	jobs := make([]posting.Posting, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		published, err := time.Parse(time.RFC3339, strings.TrimSpace(j.UpdatedAt))
		if err != nil {
			continue
		}
		p := posting.Posting{
			ID:          strconv.FormatInt(j.ID, 10),
			Title:       strings.TrimSpace(j.Title),
			URL:         strings.TrimSpace(j.AbsoluteURL),
			PublishedAt: published,
			Location:    strings.TrimSpace(j.Location.Name),
		}
		if j.ID == 0 {
			p.ID = ""
		}
		if g.normalizer != nil && j.Content != "" {
			if text, err := g.normalizer.Normalize(j.Content); err == nil {
				p.Content = text
			}
		}
		jobs = append(jobs, p)
	}
	return jobs, nil
}
