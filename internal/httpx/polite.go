package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "job-alerts-bot/1.0"

// PoliteClient enforces per-host rate limits, robots.txt rules, and polite retries.
type PoliteClient struct {
	client      *http.Client
	ua          string
	every       time.Duration
	burst       int
	attempts    int
	backoff     time.Duration
	limiters    map[string]*rate.Limiter
	robotsCache map[string]*robotstxt.RobotsData
	mu          sync.Mutex
}

type Option func(*PoliteClient)

// WithRate sets the per-host request budget.
func WithRate(every time.Duration, burst int) Option {
	return func(p *PoliteClient) {
		if every > 0 && burst > 0 {
			p.every, p.burst = every, burst
		}
	}
}

// WithRetry sets how many attempts a retryable status gets and the first backoff delay.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(p *PoliteClient) {
		if attempts > 0 {
			p.attempts = attempts
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *PoliteClient) {
		if d > 0 {
			p.client.Timeout = d
		}
	}
}

func NewPoliteClient(userAgent string, opts ...Option) *PoliteClient {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	p := &PoliteClient{
		client:      &http.Client{Timeout: 15 * time.Second},
		ua:          userAgent,
		every:       time.Second,
		burst:       2,
		attempts:    3,
		backoff:     500 * time.Millisecond,
		limiters:    map[string]*rate.Limiter{},
		robotsCache: map[string]*robotstxt.RobotsData{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PoliteClient) limiterFor(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(p.every), p.burst)
	p.limiters[host] = l
	return l
}

// NewRequest builds an HTTP GET request with context and a safe URL defaulting to https.
func NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	if rawURL == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (p *PoliteClient) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Host
	p.mu.Lock()
	if data, ok := p.robotsCache[host]; ok {
		p.mu.Unlock()
		return data, nil
	}
	p.mu.Unlock()

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.ua)

	if err := p.limiterFor(host).Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.robotsCache[host] = data
	p.mu.Unlock()
	return data, nil
}

// Do executes the request respecting robots.txt and rate limits. 429 and 503
// responses are retried with exponential backoff.
func (p *PoliteClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.ua)
	}

	u := req.URL
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	if ok := p.allowed(ctx, u, req.Method); !ok {
		return nil, &FetchError{URL: u.String(), Err: ErrBlockedByRobots}
	}

	limiter := p.limiterFor(u.Host)

	var (
		lastErr    error
		lastStatus int
	)
	for attempt := 0; attempt < p.attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			resp.Body.Close()
			backoff := p.backoff * time.Duration(1<<attempt)
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return resp, nil
	}

	if lastErr == nil {
		lastErr = errors.New("polite client: failed without error")
	}
	return nil, &FetchError{URL: u.String(), Status: lastStatus, Err: lastErr}
}

// GetJSON fetches rawURL and decodes a 2xx JSON body into v. Every failure is
// returned as *FetchError.
func (p *PoliteClient) GetJSON(ctx context.Context, rawURL string, v any) error {
	req, err := NewRequest(ctx, rawURL)
	if err != nil {
		return &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Do(ctx, req)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return err
		}
		return &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &FetchError{URL: rawURL, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &FetchError{URL: rawURL, Status: resp.StatusCode, Err: fmt.Errorf("decode failed: %w", err)}
	}
	return nil
}

func (p *PoliteClient) allowed(ctx context.Context, u *url.URL, method string) bool {
	data, err := p.robotsFor(ctx, u)
	if err != nil {
		return true // fail open to avoid blocking everything
	}
	group := data.FindGroup(p.ua)
	if group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if !group.Test(path) {
		return false
	}
	// we only read
	if !strings.EqualFold(method, http.MethodGet) && !strings.EqualFold(method, http.MethodHead) {
		return false
	}
	return true
}
