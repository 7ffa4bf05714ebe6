package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLStore keeps dedup entries in Postgres or SQLite. The primary key on
// (source_id, posting_id) is what makes CheckAndMark atomic.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if driver == DriverSQLite {
		// one connection: keeps ":memory:" databases shared and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &SQLStore{db: db, dialect: driver}, nil
}

// NewSQLStoreFromDB wraps an existing handle. dialect is DriverPostgres or DriverSQLite.
func NewSQLStoreFromDB(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Migrate applies the embedded schema for the store's dialect.
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.dialect == DriverSQLite {
		schema = sqliteSchema
	}
	return s.exec(ctx, schema)
}

// RunMigrations applies a schema file from disk instead of the embedded one.
func (s *SQLStore) RunMigrations(ctx context.Context, schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	return s.exec(ctx, string(content))
}

func (s *SQLStore) exec(ctx context.Context, schema string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *SQLStore) CheckAndMark(ctx context.Context, key posting.Key, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO dedup_entries (source_id, posting_id, first_seen_at)
VALUES (?, ?, ?)
ON CONFLICT (source_id, posting_id) DO NOTHING
`), key.SourceID, key.PostingID, now.UTC())
	if err != nil {
		return false, unavailable("check and mark "+key.String(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("check and mark "+key.String(), err)
	}
	return n == 1, nil
}

func (s *SQLStore) PurgeExpired(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	cutoff := now.UTC().Add(-ttl)
	res, err := s.db.ExecContext(ctx, s.rebind(`
DELETE FROM dedup_entries
WHERE first_seen_at < ?
`), cutoff)
	if err != nil {
		return 0, unavailable("purge expired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("purge expired", err)
	}
	return n, nil
}

func (s *SQLStore) ListEntries(ctx context.Context, limit, offset int) ([]Entry, error) {
	limit = ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT source_id, posting_id, first_seen_at
FROM dedup_entries
ORDER BY first_seen_at DESC, source_id, posting_id
LIMIT ? OFFSET ?
`), limit, offset)
	if err != nil {
		return nil, unavailable("list entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key.SourceID, &e.Key.PostingID, &e.FirstSeenAt); err != nil {
			return nil, unavailable("list entries", err)
		}
		e.FirstSeenAt = e.FirstSeenAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list entries", err)
	}
	return entries, nil
}

// rebind turns ? placeholders into $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
