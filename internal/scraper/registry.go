package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

const (
	ProviderGreenhouse = "greenhouse"
	ProviderLever      = "lever"
	ProviderAshby      = "ashby"
	ProviderRemoteOK   = "remoteok"
)

// Registry resolves "provider:token" source ids to a board scraper. A bare
// token uses the default provider.
type Registry struct {
	scrapers        map[string]BoardScraper
	defaultProvider string
}

func NewRegistry(defaultProvider string) *Registry {
	if defaultProvider == "" {
		defaultProvider = ProviderGreenhouse
	}
	return &Registry{
		scrapers:        make(map[string]BoardScraper),
		defaultProvider: defaultProvider,
	}
}

func (r *Registry) Register(provider string, s BoardScraper) {
	r.scrapers[strings.ToLower(provider)] = s
}

// ParseSource splits a source id into provider and token.
func (r *Registry) ParseSource(sourceID string) (string, string) {
	provider, token, ok := strings.Cut(sourceID, ":")
	if !ok {
		return r.defaultProvider, strings.TrimSpace(sourceID)
	}
	return strings.ToLower(strings.TrimSpace(provider)), strings.TrimSpace(token)
}

// Fetch returns the valid postings of sourceID. Records missing a required
// field are dropped here so the freshness filter never sees them.
func (r *Registry) Fetch(ctx context.Context, sourceID string) ([]posting.Posting, error) {
	provider, token := r.ParseSource(sourceID)
	s, ok := r.scrapers[provider]
	if !ok {
		return nil, fmt.Errorf("source %q: unknown provider %q", sourceID, provider)
	}

	jobs, err := s.FetchJobs(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].SourceID = sourceID
	}
	return posting.FilterValid(jobs), nil
}
