// Package cmdutil holds helpers shared by the sheet commands.
package cmdutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/concierge/internal/config"
	"github.com/lepinkainen/concierge/internal/datastore"
	"github.com/lepinkainen/concierge/internal/record"
	"github.com/lepinkainen/concierge/internal/sheets"
	"github.com/lepinkainen/concierge/internal/sheetsapi"
)

// OpenRepository returns the repository the CLI reads and writes through:
// the local SQLite store when config.LocalDB is set, the proxy otherwise.
// The returned close function must be called when done.
func OpenRepository() (sheets.Repository, func() error, error) {
	if config.LocalDB != "" {
		store := datastore.NewSQLiteStore(config.LocalDB)
		if err := store.Connect(); err != nil {
			return nil, nil, fmt.Errorf("failed to open local store: %w", err)
		}
		slog.Debug("Using local sheet store", "database", config.LocalDB)
		return sheets.StoreRepository{Store: store}, store.Close, nil
	}

	if config.APIURL == "" {
		return nil, nil, fmt.Errorf("no API URL configured (provide via --api-url flag or api.url in config)")
	}
	slog.Debug("Using sheets proxy", "url", config.APIURL)
	client := sheetsapi.NewClient(config.APIURL, sheetsapi.WithAPIKey(config.APIKey))
	return client, func() error { return nil }, nil
}

// ParseAssignments turns key=value arguments into a record in argument
// order. Numeric-looking values become numbers.
func ParseAssignments(args []string) (*record.Record, error) {
	rec := record.New()
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", arg)
		}
		rec.Set(key, record.ParseValue(value))
	}
	if rec.Len() == 0 {
		return nil, fmt.Errorf("at least one key=value field is required")
	}
	return rec, nil
}

// SetupOutputPath creates the parent directory of path.
func SetupOutputPath(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
