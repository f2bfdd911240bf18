// Package geocache persists geocoding results in a local SQLite database so
// repeated matrix builds skip the rate-limited geocoder.
package geocache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS places (
	query      TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// Store is a place -> coordinate cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL makes rows older than ttl invisible to Get. Zero keeps rows forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens or creates the cache database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open geocache: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of concurrent Put calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init geocache schema: %w", err)
	}

	s := &Store{db: db, path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Key normalizes a place query for lookup.
func Key(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}

// Get returns the cached coordinate for place. Expired rows are misses.
func (s *Store) Get(ctx context.Context, place string) (model.Coord, bool, error) {
	var c model.Coord
	var fetched int64
	err := s.db.QueryRowContext(ctx,
		`SELECT lat, lon, fetched_at FROM places WHERE query = ?`, Key(place),
	).Scan(&c.Lat, &c.Lon, &fetched)
	if err == sql.ErrNoRows {
		return model.Coord{}, false, nil
	}
	if err != nil {
		return model.Coord{}, false, fmt.Errorf("geocache get: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(time.Unix(fetched, 0)) > s.ttl {
		return model.Coord{}, false, nil
	}
	return c, true, nil
}

// Put stores or refreshes the coordinate for place.
func (s *Store) Put(ctx context.Context, place string, c model.Coord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO places (query, lat, lon, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET lat = excluded.lat, lon = excluded.lon, fetched_at = excluded.fetched_at`,
		Key(place), c.Lat, c.Lon, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("geocache put: %w", err)
	}
	return nil
}

// Len returns the number of stored rows, expired ones included.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM places`).Scan(&n); err != nil {
		return 0, fmt.Errorf("geocache count: %w", err)
	}
	return n, nil
}

// Purge deletes rows fetched more than olderThan ago and reports how many
// were removed.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM places WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("geocache purge: %w", err)
	}
	return res.RowsAffected()
}
