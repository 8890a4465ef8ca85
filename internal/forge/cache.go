package forge

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultCacheTTL is how long a cached latest-version lookup stays fresh.
const DefaultCacheTTL = time.Hour

const cacheSchema = `
CREATE TABLE IF NOT EXISTS forge_lookups (
	name       TEXT PRIMARY KEY,
	version    TEXT NOT NULL,
	checked_at INTEGER NOT NULL
);`

// Cache stores forge latest-version lookups in a SQLite database so repeated
// update runs do not re-query the forge for every package.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenCache opens (creating if needed) the lookup cache at path. A zero ttl
// selects DefaultCacheTTL.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached version for name if the entry is still fresh.
func (c *Cache) Get(name string) (string, bool, error) {
	var version string
	var checkedAt int64
	err := c.db.QueryRow(
		"SELECT version, checked_at FROM forge_lookups WHERE name = ?", name,
	).Scan(&version, &checkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying cache: %w", err)
	}
	if c.now().Unix()-checkedAt > int64(c.ttl.Seconds()) {
		return "", false, nil
	}
	return version, true, nil
}

// Put records a successful lookup, replacing any previous entry.
func (c *Cache) Put(name, version string) error {
	_, err := c.db.Exec(
		"INSERT INTO forge_lookups (name, version, checked_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(name) DO UPDATE SET version = excluded.version, checked_at = excluded.checked_at",
		name, version, c.now().Unix())
	if err != nil {
		return fmt.Errorf("updating cache: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
