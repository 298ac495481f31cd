// Package sheets is the client side of the spreadsheet database: a view onto
// one sheet (or all of them) that stays in step with the backing store after
// every add, update and delete.
package sheets

import (
	"context"

	"github.com/lepinkainen/concierge/internal/datastore"
	"github.com/lepinkainen/concierge/internal/errors"
	"github.com/lepinkainen/concierge/internal/record"
)

// Repository is the narrow read/write contract the client needs from a
// backing store.
type Repository interface {
	// Get returns the named table keyed by its name, or every table when
	// table is empty.
	Get(ctx context.Context, table string) (record.Snapshot, error)

	// Mutate applies an add, update or delete. A result carrying an
	// "error" field is treated as a failure by the client.
	Mutate(ctx context.Context, m record.Mutation) (record.MutationResult, error)
}

// StoreRepository serves a Repository straight from a datastore.Store,
// bypassing the proxy.
type StoreRepository struct {
	Store datastore.Store
}

// Get reads one sheet or all sheets from the store.
func (r StoreRepository) Get(ctx context.Context, table string) (record.Snapshot, error) {
	if table == "" {
		return r.Store.AllData(ctx)
	}
	rows, err := r.Store.SheetData(ctx, table)
	if err != nil {
		return nil, err
	}
	return record.Snapshot{table: rows}, nil
}

// Mutate validates and applies the mutation.
func (r StoreRepository) Mutate(ctx context.Context, m record.Mutation) (record.MutationResult, error) {
	if err := m.Validate(); err != nil {
		return record.MutationResult{}, errors.NewRemoteError(400, err.Error())
	}
	return r.Store.Apply(ctx, m)
}
