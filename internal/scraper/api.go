package scraper

import (
	"context"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

// BoardScraper fetches the current postings of one company board. Returned
// postings carry no SourceID; the Registry stamps it.
type BoardScraper interface {
	FetchJobs(ctx context.Context, token string) ([]posting.Posting, error)
}

type Normalizer interface {
	Normalize(htmlContent string) (string, error)
}
