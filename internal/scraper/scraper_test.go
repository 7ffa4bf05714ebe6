package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-alerts/internal/httpx"
)

const greenhouseFixture = `{
  "jobs": [
    {
      "id": 4012345,
      "title": "Senior Software Engineer",
      "absolute_url": "https://boards.greenhouse.io/acme/jobs/4012345",
      "updated_at": "2026-10-17T10:15:00-04:00",
      "location": {"name": "Remote - United States"},
      "content": "&lt;p&gt;Build &lt;strong&gt;things&lt;/strong&gt;.&lt;/p&gt;"
    },
    {
      "id": 4012346,
      "title": "Designer",
      "absolute_url": "https://boards.greenhouse.io/acme/jobs/4012346",
      "updated_at": "not a date",
      "location": {"name": "New York"}
    },
    {
      "id": 4012347,
      "title": "Recruiter",
      "absolute_url": "https://boards.greenhouse.io/acme/jobs/4012347",
      "updated_at": "2026-10-17T10:15:00Z",
      "location": {"name": ""}
    }
  ],
  "meta": {"total": 3}
}`

const leverFixture = `[
  {
    "id": "8b1c-22",
    "text": "Backend Engineer",
    "hostedUrl": "https://jobs.lever.co/globex/8b1c-22",
    "createdAt": 1792246500000,
    "categories": {"team": "Platform", "location": "Austin, TX, United States"},
    "descriptionPlain": "Work on\n the  platform."
  },
  {
    "id": "",
    "text": "Broken",
    "hostedUrl": "https://jobs.lever.co/globex/x",
    "createdAt": 1792246500000,
    "categories": {"location": "Remote"}
  }
]`

const ashbyFixture = `{
  "apiVersion": "1",
  "jobs": [
    {
      "id": "a1f0",
      "title": " Platform Engineer ",
      "location": "New York",
      "workplaceType": "Remote",
      "isRemote": true,
      "isListed": true,
      "publishedAt": "2026-10-17T09:30:00.123+00:00",
      "jobUrl": "https://jobs.ashbyhq.com/initech/a1f0",
      "descriptionPlain": "Own the\n deploy pipeline.",
      "address": {"postalAddress": {"addressCountry": "United States"}}
    },
    {
      "id": "a1f1",
      "title": "Hidden",
      "location": "Remote",
      "isListed": false,
      "publishedAt": "2026-10-17T09:30:00Z",
      "jobUrl": "https://jobs.ashbyhq.com/initech/a1f1"
    }
  ]
}`

const remoteOKFixture = `[
  {"legal": "API terms"},
  {
    "id": "1099",
    "slug": "remote-go-developer-umbrella-1099",
    "position": "Go Developer",
    "url": "https://remoteok.com/remote-jobs/1099",
    "tags": ["Golang", "backend"],
    "date": "2026-10-17T04:02:19+00:00",
    "description": "<p>Write <em>Go</em></p>",
    "location": "United States"
  },
  {
    "id": "1100",
    "slug": "remote-ruby-developer-umbrella-1100",
    "position": "Ruby Developer",
    "url": "https://remoteok.com/remote-jobs/1100",
    "tags": ["ruby"],
    "date": "2026-10-17T04:02:19+00:00",
    "location": ""
  }
]`

func newBoardServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/boards/acme/jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("content"))
		w.Write([]byte(greenhouseFixture))
	})
	mux.HandleFunc("/boards/down/jobs", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/postings/globex", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("mode"))
		w.Write([]byte(leverFixture))
	})
	mux.HandleFunc("/ashby/initech", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ashbyFixture))
	})
	mux.HandleFunc("/remoteok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(remoteOKFixture))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRegistry(srv *httptest.Server) *Registry {
	client := httpx.NewPoliteClient("test-agent", httpx.WithRate(time.Millisecond, 10), httpx.WithRetry(1, time.Millisecond))
	reg := NewRegistry(ProviderGreenhouse)
	reg.Register(ProviderGreenhouse, NewGreenhouseScraper(client, srv.URL+"/boards", NewSimpleNormalizer(200)))
	reg.Register(ProviderLever, NewLeverScraper(client, srv.URL+"/postings"))
	reg.Register(ProviderAshby, NewAshbyScraper(client, srv.URL+"/ashby"))
	reg.Register(ProviderRemoteOK, NewRemoteOKScraper(client, srv.URL+"/remoteok", NewSimpleNormalizer(200)))
	return reg
}

func TestGreenhouseFetchDropsInvalid(t *testing.T) {
	srv := newBoardServer(t)
	reg := newTestRegistry(srv)

	jobs, err := reg.Fetch(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, "acme", j.SourceID)
	assert.Equal(t, "4012345", j.ID)
	assert.Equal(t, "Senior Software Engineer", j.Title)
	assert.Equal(t, "Remote - United States", j.Location)
	assert.True(t, j.PublishedAt.Equal(time.Date(2026, 10, 17, 14, 15, 0, 0, time.UTC)))
	assert.Equal(t, "Build things.", j.Content)
}

func TestLeverFetch(t *testing.T) {
	srv := newBoardServer(t)
	reg := newTestRegistry(srv)

	jobs, err := reg.Fetch(context.Background(), "lever:globex")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "lever:globex", jobs[0].SourceID)
	assert.Equal(t, "8b1c-22", jobs[0].ID)
	assert.Equal(t, "Work on the platform.", jobs[0].Content)
	assert.Equal(t, int64(1792246500000), jobs[0].PublishedAt.UnixMilli())
}

func TestAshbyFetchSkipsUnlisted(t *testing.T) {
	srv := newBoardServer(t)
	reg := newTestRegistry(srv)

	jobs, err := reg.Fetch(context.Background(), "ashby:initech")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, "a1f0", j.ID)
	assert.Equal(t, "Platform Engineer", j.Title)
	assert.Equal(t, "New York (Remote), United States", j.Location)
	assert.Equal(t, "Own the deploy pipeline.", j.Content)
	assert.True(t, j.PublishedAt.Equal(time.Date(2026, 10, 17, 9, 30, 0, 123000000, time.UTC)))
}

func TestRemoteOKFiltersByTag(t *testing.T) {
	srv := newBoardServer(t)
	reg := newTestRegistry(srv)

	jobs, err := reg.Fetch(context.Background(), "remoteok:golang")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "1099", jobs[0].ID)
	assert.Equal(t, "Remote - United States", jobs[0].Location)
	assert.Equal(t, "Write Go", jobs[0].Content)

	all, err := reg.Fetch(context.Background(), "remoteok:")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Remote", all[1].Location)
}

func TestFetchErrorSurfaces(t *testing.T) {
	srv := newBoardServer(t)
	reg := newTestRegistry(srv)

	_, err := reg.Fetch(context.Background(), "greenhouse:down")
	var fe *httpx.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
}

func TestUnknownProvider(t *testing.T) {
	reg := NewRegistry("")
	_, err := reg.Fetch(context.Background(), "workday:acme")
	assert.Error(t, err)
}

func TestParseSource(t *testing.T) {
	reg := NewRegistry(ProviderGreenhouse)
	provider, token := reg.ParseSource("Lever: globex ")
	assert.Equal(t, "lever", provider)
	assert.Equal(t, "globex", token)

	provider, token = reg.ParseSource("acme")
	assert.Equal(t, ProviderGreenhouse, provider)
	assert.Equal(t, "acme", token)
}

func TestNormalizerTruncates(t *testing.T) {
	out, err := NewSimpleNormalizer(5).Normalize("<div>Hello <b>world</b><script>x()</script></div>")
	require.NoError(t, err)
	assert.Equal(t, "Hello…", out)
}
