// Package datastore holds the backing stores the proxy forwards sheet reads
// and writes to.
package datastore

import (
	"context"

	"github.com/lepinkainen/concierge/internal/record"
)

// Store is a spreadsheet-shaped backend: named sheets of ordered rows,
// addressed positionally.
type Store interface {
	// SheetData returns the rows of one sheet.
	SheetData(ctx context.Context, sheet string) (record.Table, error)

	// AllData returns every sheet keyed by name.
	AllData(ctx context.Context) (record.Snapshot, error)

	// Apply performs an add, update or delete and returns the store's
	// response payload.
	Apply(ctx context.Context, m record.Mutation) (record.MutationResult, error)

	// Close releases any resources held by the store
	Close() error
}
