// Package cache keeps the last successfully read copy of each sheet in
// SQLite so the proxy can serve it when the spreadsheet is unreachable.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultCacheTTL is how long a stored snapshot stays usable as a fallback.
const DefaultCacheTTL = 24 * time.Hour

// SnapshotCacheSchema defines the single cache table. All entries use
// "cache_key" as the primary key.
const SnapshotCacheSchema = `
CREATE TABLE IF NOT EXISTS sheet_snapshot_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sheet_snapshot_cached_at ON sheet_snapshot_cache(cached_at);
`

// CacheDB manages the SQLite database connection for caching
type CacheDB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	now  func() time.Time
}

// NewCacheDB opens the cache database and creates its table
func NewCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}
	if _, err := db.Exec(SnapshotCacheSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), closeErr)
	}

	return &CacheDB{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the database file the cache was opened with
func (c *CacheDB) Path() string {
	return c.path
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get retrieves a cached value.
// Returns the cached data, whether a fresh entry was found, and any error
func (c *CacheDB) Get(key string, ttl time.Duration) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var data string
	var cachedAt time.Time
	err := c.db.QueryRow(`
		SELECT data, cached_at
		FROM sheet_snapshot_cache
		WHERE cache_key = ?
	`, key).Scan(&data, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	// Check if cache has expired
	age := c.now().Sub(cachedAt)
	if ttl > 0 && age > ttl {
		slog.Debug("Cache expired", "key", key, "age", age)
		return "", false, nil
	}

	return data, true, nil
}

// Set stores a value in the cache
func (c *CacheDB) Set(key, data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO sheet_snapshot_cache (cache_key, data, cached_at)
		VALUES (?, ?, ?)
	`, key, data, c.now())
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Invalidate deletes every cached entry.
// Returns the number of rows deleted
func (c *CacheDB) Invalidate() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.Exec(`DELETE FROM sheet_snapshot_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache cleared", "rows_deleted", rowsAffected)
	return rowsAffected, nil
}
