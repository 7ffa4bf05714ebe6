package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/baxromumarov/job-alerts/internal/observability"
	"github.com/baxromumarov/job-alerts/internal/posting"
	"github.com/baxromumarov/job-alerts/internal/store"
)

// Fetcher returns the valid postings currently listed by a source.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string) ([]posting.Posting, error)
}

// Notifier delivers one posting. It is called at most once per newly marked posting.
type Notifier interface {
	Notify(ctx context.Context, p posting.Posting) error
}

// SourceAlerter is told once per source and cycle when at least one posting
// from that source was notified.
type SourceAlerter interface {
	Alert(ctx context.Context, sourceID string, notified []posting.Posting) error
}

type FetchError struct {
	SourceID string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch source %s: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotifyError is a delivery gap: the posting is marked but was not delivered.
type NotifyError struct {
	Key posting.Key
	Err error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Key, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

type SourceOutcome struct {
	SourceID     string `json:"source_id"`
	Fetched      int    `json:"fetched"`
	Qualified    int    `json:"qualified"`
	Notified     int    `json:"notified"`
	Duplicates   int    `json:"duplicates"`
	StoreErrors  int    `json:"store_errors"`
	NotifyErrors int    `json:"notify_errors"`
	Cancelled    bool   `json:"cancelled,omitempty"`
	Err          error  `json:"-"`
	Error        string `json:"error,omitempty"`
}

type CycleReport struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Purged     int64           `json:"purged"`
	PurgeError string          `json:"purge_error,omitempty"`
	Sources    []SourceOutcome `json:"sources"`
}

func (r CycleReport) Totals() (notified, duplicates, failed int) {
	for _, s := range r.Sources {
		notified += s.Notified
		duplicates += s.Duplicates
		if s.Err != nil || s.StoreErrors > 0 {
			failed++
		}
	}
	return notified, duplicates, failed
}

// Poller runs one stateless pass over a set of sources. Everything it
// remembers between cycles lives in the dedup store.
type Poller struct {
	fetcher     Fetcher
	dedup       store.DedupStore
	notifier    Notifier
	alerter     SourceAlerter
	policy      Policy
	concurrency int
	logger      *slog.Logger
	stats       *observability.Stats
}

type PollerOption func(*Poller)

func WithAlerter(a SourceAlerter) PollerOption {
	return func(p *Poller) { p.alerter = a }
}

func WithConcurrency(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithStats(s *observability.Stats) PollerOption {
	return func(p *Poller) {
		if s != nil {
			p.stats = s
		}
	}
}

func NewPoller(fetcher Fetcher, dedup store.DedupStore, notifier Notifier, policy Policy, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:     fetcher,
		dedup:       dedup,
		notifier:    notifier,
		policy:      policy,
		concurrency: 4,
		logger:      slog.Default(),
		stats:       observability.NewStats(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunCycle processes every source independently; a failing source never
// affects the others. Outcomes are returned in the order of sources.
func (p *Poller) RunCycle(ctx context.Context, sources []string, now time.Time) CycleReport {
	report := CycleReport{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Sources:   make([]SourceOutcome, len(sources)),
	}
	logger := p.logger.With("run_id", report.RunID)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, sourceID := range sources {
		i, sourceID := i, sourceID
		g.Go(func() error {
			report.Sources[i] = p.pollSource(ctx, logger.With("source", sourceID), sourceID, now)
			return nil
		})
	}
	g.Wait()

	report.FinishedAt = now.Add(time.Since(start))
	return report
}

func (p *Poller) pollSource(ctx context.Context, logger *slog.Logger, sourceID string, now time.Time) SourceOutcome {
	out := SourceOutcome{SourceID: sourceID}

	postings, err := p.fetcher.Fetch(ctx, sourceID)
	if err != nil {
		ferr := &FetchError{SourceID: sourceID, Err: err}
		p.stats.IncError(observability.ClassifyFetchError(err), "fetch")
		logger.Warn("fetch failed, skipping source", "error", err)
		out.Err, out.Error = ferr, ferr.Error()
		return out
	}
	out.Fetched = len(postings)
	p.stats.IncFetched(len(postings))

	var notified []posting.Posting
	for _, post := range postings {
		if !IsQualifying(post, p.policy, now) {
			continue
		}
		out.Qualified++
		p.stats.IncQualified(1)

		if err := ctx.Err(); err != nil {
			out.Cancelled = true
			out.Err, out.Error = err, err.Error()
			break
		}

		isNew, err := p.dedup.CheckAndMark(ctx, post.Key(), now)
		if err != nil {
			// fail closed: an unknown dedup state never leads to a notification
			out.StoreErrors++
			p.stats.IncError(observability.ClassifyError(err), "store")
			logger.Error("dedup check failed, not notifying", "posting_id", post.ID, "error", err)
			if out.Err == nil {
				out.Err, out.Error = err, err.Error()
			}
			continue
		}
		if !isNew {
			out.Duplicates++
			p.stats.IncDuplicate()
			continue
		}

		if err := p.notifier.Notify(ctx, post); err != nil {
			nerr := &NotifyError{Key: post.Key(), Err: err}
			out.NotifyErrors++
			p.stats.IncError(observability.ErrorNotify, "notifier")
			logger.Error("delivery gap: posting marked but not delivered", "posting_id", post.ID, "error", nerr)
			continue
		}
		out.Notified++
		p.stats.IncNotified()
		notified = append(notified, post)
		logger.Info("posting notified", "posting_id", post.ID, "title", post.Title)
	}

	if p.alerter != nil && len(notified) > 0 && ctx.Err() == nil {
		if err := p.alerter.Alert(ctx, sourceID, notified); err != nil {
			out.NotifyErrors++
			p.stats.IncError(observability.ErrorNotify, "alerter")
			logger.Error("source alert failed", "error", err)
		}
	}

	logger.Info("source polled",
		"fetched", out.Fetched,
		"qualified", out.Qualified,
		"notified", out.Notified,
		"duplicates", out.Duplicates,
		"store_errors", out.StoreErrors,
		"notify_errors", out.NotifyErrors,
	)
	return out
}
