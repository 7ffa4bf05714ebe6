package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/baxromumarov/job-alerts/internal/observability"
	"github.com/baxromumarov/job-alerts/internal/store"
)

// Service runs scheduled polling cycles: purge expired dedup entries, then
// poll every configured source.
type Service struct {
	poller  *Poller
	dedup   store.DedupStore
	sources []string
	ttl     time.Duration
	clock   func() time.Time
	logger  *slog.Logger
	stats   *observability.Stats

	// serialises RunOnce so a manual trigger and the scheduler never overlap
	runMu sync.Mutex

	mu   sync.RWMutex
	last *CycleReport
}

func NewService(poller *Poller, dedup store.DedupStore, sources []string, ttl time.Duration, logger *slog.Logger, stats *observability.Stats) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = observability.NewStats()
	}
	return &Service{
		poller:  poller,
		dedup:   dedup,
		sources: append([]string(nil), sources...),
		ttl:     ttl,
		clock:   time.Now,
		logger:  logger,
		stats:   stats,
	}
}

// SetClock replaces time.Now; used by tests.
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *Service) Sources() []string {
	return append([]string(nil), s.sources...)
}

// RunOnce purges expired entries and runs one cycle. A purge failure is
// reported but does not stop the cycle.
func (s *Service) RunOnce(ctx context.Context) CycleReport {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	now := s.clock().UTC()

	purged, purgeErr := s.Purge(ctx, now)

	report := s.poller.RunCycle(ctx, s.sources, now)
	report.Purged = purged
	if purgeErr != nil {
		report.PurgeError = purgeErr.Error()
	}
	s.stats.ObserveCycle(time.Since(start))

	notified, duplicates, failed := report.Totals()
	s.logger.Info("cycle finished",
		"run_id", report.RunID,
		"sources", len(report.Sources),
		"notified", notified,
		"duplicates", duplicates,
		"failed_sources", failed,
		"purged", purged,
		"duration", time.Since(start).String(),
	)

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	return report
}

func (s *Service) Purge(ctx context.Context, now time.Time) (int64, error) {
	purged, err := s.dedup.PurgeExpired(ctx, now, s.ttl)
	if err != nil {
		s.stats.IncError(observability.ClassifyError(err), "store")
		s.logger.Error("purge failed", "error", err)
		return 0, err
	}
	s.stats.AddPurged(purged)
	if purged > 0 {
		s.logger.Info("purged expired dedup entries", "count", purged)
	}
	return purged, nil
}

// LastReport returns the most recent cycle report, if any cycle has run.
func (s *Service) LastReport() (CycleReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return CycleReport{}, false
	}
	return *s.last, true
}

func (s *Service) Stats() observability.StatsSnapshot {
	return s.stats.Snapshot()
}
