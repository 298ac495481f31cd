package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lepinkainen/concierge/internal/fallback"
	"github.com/lepinkainen/concierge/internal/record"
)

const allSheetsKey = "all"

func sheetKey(name string) string {
	return "sheet:" + name
}

// LastGood is a fallback policy that serves the most recent successful read
// and defers to next when nothing fresh enough is cached.
type LastGood struct {
	db   *CacheDB
	ttl  time.Duration
	next fallback.Policy
}

// NewLastGood wraps db. A nil next behaves like fallback.None.
func NewLastGood(db *CacheDB, ttl time.Duration, next fallback.Policy) *LastGood {
	if next == nil {
		next = fallback.None{}
	}
	return &LastGood{db: db, ttl: ttl, next: next}
}

// RememberTable records a successful single-sheet read.
func (l *LastGood) RememberTable(name string, table record.Table) {
	l.store(sheetKey(name), table)
}

// RememberSnapshot records a successful all-sheets read.
func (l *LastGood) RememberSnapshot(snap record.Snapshot) {
	l.store(allSheetsKey, snap)
}

// Table serves the cached sheet, then the sheet from the cached snapshot,
// then the next policy.
func (l *LastGood) Table(name string) (record.Table, bool) {
	var table record.Table
	if l.load(sheetKey(name), &table) {
		return table, true
	}
	var snap record.Snapshot
	if l.load(allSheetsKey, &snap) {
		if t, ok := snap[name]; ok {
			return t, true
		}
	}
	return l.next.Table(name)
}

// Snapshot serves the cached snapshot or the next policy's.
func (l *LastGood) Snapshot() record.Snapshot {
	var snap record.Snapshot
	if l.load(allSheetsKey, &snap) {
		return snap
	}
	return l.next.Snapshot()
}

func (l *LastGood) store(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to marshal data for caching", "key", key, "error", err)
		return
	}
	// caching failure shouldn't fail the read that produced the data
	if err := l.db.Set(key, string(data)); err != nil {
		slog.Warn("Failed to cache data", "key", key, "error", err)
	}
}

func (l *LastGood) load(key string, target any) bool {
	cached, ok, err := l.db.Get(key, l.ttl)
	if err != nil {
		slog.Warn("Failed to read cache", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(cached), target); err != nil {
		slog.Warn("Failed to unmarshal cached data", "key", key, "error", err)
		return false
	}
	slog.Debug("Serving cached sheet data", "key", key)
	return true
}
