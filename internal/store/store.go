package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

// ErrStoreUnavailable wraps every backend failure. Callers must treat it as
// "unknown", never as "not seen before".
var ErrStoreUnavailable = errors.New("dedup store unavailable")

// Entry records the first time a posting key was checked.
type Entry struct {
	Key         posting.Key `json:"key"`
	FirstSeenAt time.Time   `json:"first_seen_at"`
}

// DedupStore maps (source id, posting id) to a first-seen timestamp.
type DedupStore interface {
	// CheckAndMark atomically creates the entry for key if it is absent and
	// reports whether this call created it. Existing entries are never updated.
	CheckAndMark(ctx context.Context, key posting.Key, now time.Time) (bool, error)

	// PurgeExpired deletes entries with now - first_seen_at > ttl and returns
	// how many were removed.
	PurgeExpired(ctx context.Context, now time.Time, ttl time.Duration) (int64, error)

	ListEntries(ctx context.Context, limit, offset int) ([]Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// ListEntries page sizes.
const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMemory   = "memory"
)

// Open returns the store for driver. SQL stores are migrated before return.
func Open(ctx context.Context, driver, dsn string) (DedupStore, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverPostgres, DriverSQLite:
		s, err := NewSQLStore(driver, dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// ClampLimit maps a requested page size onto what ListEntries returns at most.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
