package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

type StatsSnapshot struct {
	Cycles            uint64            `json:"cycles"`
	PostingsFetched   uint64            `json:"postings_fetched"`
	PostingsQualified uint64            `json:"postings_qualified"`
	Notified          uint64            `json:"notified"`
	Duplicates        uint64            `json:"duplicates"`
	Purged            uint64            `json:"purged"`
	ErrorsTotal       uint64            `json:"errors_total"`
	CycleSecondsAvg   float64           `json:"cycle_seconds_avg"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
}

// Stats counts poller activity for the /stats endpoint. The zero value is not
// usable; call NewStats.
type Stats struct {
	cycles     uint64
	fetched    uint64
	qualified  uint64
	notified   uint64
	duplicates uint64
	purged     uint64
	errors     uint64

	cycleCount uint64
	cycleNanos uint64

	mu                sync.Mutex
	errorsByType      map[string]uint64
	errorsByComponent map[string]uint64
}

func NewStats() *Stats {
	return &Stats{
		errorsByType:      map[string]uint64{},
		errorsByComponent: map[string]uint64{},
	}
}

func (s *Stats) IncFetched(n int)   { atomic.AddUint64(&s.fetched, uint64(n)) }
func (s *Stats) IncQualified(n int) { atomic.AddUint64(&s.qualified, uint64(n)) }
func (s *Stats) IncNotified()       { atomic.AddUint64(&s.notified, 1) }
func (s *Stats) IncDuplicate()      { atomic.AddUint64(&s.duplicates, 1) }

func (s *Stats) AddPurged(n int64) {
	if n > 0 {
		atomic.AddUint64(&s.purged, uint64(n))
	}
}

func (s *Stats) ObserveCycle(d time.Duration) {
	atomic.AddUint64(&s.cycles, 1)
	if d <= 0 {
		return
	}
	atomic.AddUint64(&s.cycleCount, 1)
	atomic.AddUint64(&s.cycleNanos, uint64(d.Nanoseconds()))
}

func (s *Stats) IncError(errType, component string) {
	if errType == "" {
		errType = ErrorUnknown
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&s.errors, 1)
	s.mu.Lock()
	s.errorsByType[errType]++
	s.errorsByComponent[component]++
	s.mu.Unlock()
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	byType := copyMap(s.errorsByType)
	byComponent := copyMap(s.errorsByComponent)
	s.mu.Unlock()

	count := atomic.LoadUint64(&s.cycleCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&s.cycleNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		Cycles:            atomic.LoadUint64(&s.cycles),
		PostingsFetched:   atomic.LoadUint64(&s.fetched),
		PostingsQualified: atomic.LoadUint64(&s.qualified),
		Notified:          atomic.LoadUint64(&s.notified),
		Duplicates:        atomic.LoadUint64(&s.duplicates),
		Purged:            atomic.LoadUint64(&s.purged),
		ErrorsTotal:       atomic.LoadUint64(&s.errors),
		CycleSecondsAvg:   avg,
		ErrorsByType:      byType,
		ErrorsByComponent: byComponent,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
