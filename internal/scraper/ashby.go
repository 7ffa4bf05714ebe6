package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

const DefaultAshbyAPI = "https://api.ashbyhq.com/posting-api/job-board"

type ashbyBoard struct {
	Jobs []ashbyJobPosting `json:"jobs"`
}

type ashbyJobPosting struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Location         string `json:"location"`
	WorkplaceType    string `json:"workplaceType"`
	IsRemote         bool   `json:"isRemote"`
	IsListed         bool   `json:"isListed"`
	PublishedAt      string `json:"publishedAt"`
	JobURL           string `json:"jobUrl"`
	DescriptionPlain string `json:"descriptionPlain"`
	Address          *struct {
		PostalAddress struct {
			AddressCountry string `json:"addressCountry"`
		} `json:"postalAddress"`
	} `json:"address"`
}

type AshbyScraper struct {
	client JSONGetter
	base   string
}

func NewAshbyScraper(client JSONGetter, baseURL string) *AshbyScraper {
	if baseURL == "" {
		baseURL = DefaultAshbyAPI
	}
	return &AshbyScraper{
		client: client,
		base:   strings.TrimSuffix(baseURL, "/"),
	}
}

func (a *AshbyScraper) FetchJobs(ctx context.Context, token string) ([]posting.Posting, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("ashby: empty board name")
	}
	apiURL := fmt.Sprintf("%s/%s", a.base, url.PathEscape(token))

	var board ashbyBoard
	if err := a.client.GetJSON(ctx, apiURL, &board); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	jobs := make([]posting.Posting, 0, len(board.Jobs))
	for _, p := range board.Jobs {
		if !p.IsListed {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}

		jobs = append(jobs, posting.Posting{
			ID:          p.ID,
			Title:       strings.TrimSpace(p.Title),
			URL:         p.JobURL,
			PublishedAt: parseAshbyDate(p.PublishedAt),
			Location:    ashbyLocation(p),
			Content:     strings.Join(strings.Fields(p.DescriptionPlain), " "),
		})
	}
	return jobs, nil
}

// ashbyLocation folds the workplace type and postal country into the location
// text, since the free-text location often omits the country.
func ashbyLocation(p ashbyJobPosting) string {
	loc := strings.TrimSpace(p.Location)
	lower := strings.ToLower(loc)

	workplace := p.WorkplaceType
	if workplace == "" && p.IsRemote {
		workplace = "Remote"
	}
	if workplace != "" && !strings.Contains(lower, strings.ToLower(workplace)) {
		if loc == "" {
			loc = workplace
		} else {
			loc = loc + " (" + workplace + ")"
		}
	}

	if p.Address != nil {
		country := strings.TrimSpace(p.Address.PostalAddress.AddressCountry)
		if country != "" && !strings.Contains(lower, strings.ToLower(country)) {
			if loc == "" {
				loc = country
			} else {
				loc = loc + ", " + country
			}
		}
	}
	return loc
}

func parseAshbyDate(val string) time.Time {
	if val == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999Z0700", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t
		}
	}
	return time.Time{}
}
