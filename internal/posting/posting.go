package posting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPosting = errors.New("invalid posting")

// Key identifies a posting across polling cycles. Posting ids are only unique
// within their source.
type Key struct {
	SourceID  string `json:"source_id"`
	PostingID string `json:"posting_id"`
}

func (k Key) String() string {
	return k.SourceID + "/" + k.PostingID
}

// Posting is one job listing as returned by a feed for a single polling cycle.
type Posting struct {
	SourceID    string    `json:"source_id"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Location    string    `json:"location"`
	Content     string    `json:"content,omitempty"`
}

func (p Posting) Key() Key {
	return Key{SourceID: p.SourceID, PostingID: p.ID}
}

// Validate reports whether every field the freshness filter relies on is present.
// Content is optional.
func (p Posting) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: missing %s", ErrInvalidPosting, field)
	}
	switch {
	case strings.TrimSpace(p.SourceID) == "":
		return missing("source_id")
	case strings.TrimSpace(p.ID) == "":
		return missing("id")
	case strings.TrimSpace(p.Title) == "":
		return missing("title")
	case strings.TrimSpace(p.URL) == "":
		return missing("url")
	case strings.TrimSpace(p.Location) == "":
		return missing("location")
	case p.PublishedAt.IsZero():
		return missing("published_at")
	}
	return nil
}

// FilterValid drops postings that fail Validate.
func FilterValid(in []Posting) []Posting {
	out := make([]Posting, 0, len(in))
	for _, p := range in {
		if p.Validate() != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}
