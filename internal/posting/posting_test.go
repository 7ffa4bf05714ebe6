package posting

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPosting() Posting {
	return Posting{
		SourceID:    "acme",
		ID:          "1",
		Title:       "Software Engineer",
		URL:         "https://boards.greenhouse.io/acme/jobs/1",
		PublishedAt: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
		Location:    "Remote, United States",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Posting)
		field  string
	}{
		{"valid", func(*Posting) {}, ""},
		{"no source", func(p *Posting) { p.SourceID = "" }, "source_id"},
		{"no id", func(p *Posting) { p.ID = " " }, "id"},
		{"no title", func(p *Posting) { p.Title = "" }, "title"},
		{"no url", func(p *Posting) { p.URL = "" }, "url"},
		{"no location", func(p *Posting) { p.Location = "" }, "location"},
		{"no published_at", func(p *Posting) { p.PublishedAt = time.Time{} }, "published_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPosting()
			tt.mutate(&p)
			err := p.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidPosting))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestFilterValid(t *testing.T) {
	bad := validPosting()
	bad.URL = ""
	out := FilterValid([]Posting{validPosting(), bad})
	assert.Len(t, out, 1)
	assert.Equal(t, Key{SourceID: "acme", PostingID: "1"}, out[0].Key())
	assert.Equal(t, "acme/1", out[0].Key().String())
}
