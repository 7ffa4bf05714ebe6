package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

const DefaultLeverAPI = "https://api.lever.co/v0/postings"

type leverPosting struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	HostedURL   string   `json:"hostedUrl"`
	Categories  category `json:"categories"`
	CreatedAt   int64    `json:"createdAt"`
	Description string   `json:"descriptionPlain"`
}

type category struct {
	Team     string `json:"team"`
	Location string `json:"location"`
}

type LeverScraper struct {
	client JSONGetter
	base   string
}

func NewLeverScraper(client JSONGetter, baseURL string) *LeverScraper {
	if baseURL == "" {
		baseURL = DefaultLeverAPI
	}
	return &LeverScraper{
		client: client,
		base:   strings.TrimSuffix(baseURL, "/"),
	}
}

func (l *LeverScraper) FetchJobs(ctx context.Context, token string) ([]posting.Posting, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("lever: empty company token")
	}
	apiURL := fmt.Sprintf("%s/%s?mode=json", l.base, url.PathEscape(token))

	var postings []leverPosting
	if err := l.client.GetJSON(ctx, apiURL, &postings); err != nil {
		return nil, err
	}

	jobs := make([]posting.Posting, 0, len(postings))
	for _, p := range postings {
		var published time.Time
		if p.CreatedAt > 0 {
			published = time.UnixMilli(p.CreatedAt).UTC()
		}
		jobs = append(jobs, posting.Posting{
			ID:          p.ID,
			Title:       strings.TrimSpace(p.Text),
			URL:         p.HostedURL,
			PublishedAt: published,
			Location:    strings.TrimSpace(p.Categories.Location),
			Content:     strings.Join(strings.Fields(p.Description), " "),
		})
	}
	return jobs, nil
}
