package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

// MemoryStore is a process-local DedupStore. Entries do not survive a restart,
// so it is only suitable for tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[posting.Key]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[posting.Key]time.Time)}
}

func (m *MemoryStore) CheckAndMark(ctx context.Context, key posting.Key, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("check and mark "+key.String(), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = now.UTC()
	return true, nil
}

func (m *MemoryStore) PurgeExpired(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("purge expired", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for key, seen := range m.entries {
		if now.Sub(seen) > ttl {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) ListEntries(_ context.Context, limit, offset int) ([]Entry, error) {
	limit = ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	m.mu.Lock()
	entries := make([]Entry, 0, len(m.entries))
	for key, seen := range m.entries {
		entries = append(entries, Entry{Key: key, FirstSeenAt: seen})
	}
	m.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].FirstSeenAt.Equal(entries[j].FirstSeenAt) {
			return entries[i].FirstSeenAt.After(entries[j].FirstSeenAt)
		}
		if entries[i].Key.SourceID != entries[j].Key.SourceID {
			return entries[i].Key.SourceID < entries[j].Key.SourceID
		}
		return entries[i].Key.PostingID < entries[j].Key.PostingID
	})

	if offset >= len(entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
