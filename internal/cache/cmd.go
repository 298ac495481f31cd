package cache

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// ClearCacheCmd represents the cache clear subcommand
type ClearCacheCmd struct{}

func (c *ClearCacheCmd) Run() error {
	cacheDB := viper.GetString("cache.dbfile")
	if cacheDB == "" {
		return fmt.Errorf("no cache database configured (set cache.dbfile in config)")
	}

	slog.Info("Clearing sheet cache", "database", cacheDB)

	db, err := NewCacheDB(cacheDB)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rowsDeleted, err := db.Invalidate()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	slog.Info("Cache cleared", "rows_deleted", rowsDeleted)
	return nil
}
