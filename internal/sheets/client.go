package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/lepinkainen/concierge/internal/errors"
	"github.com/lepinkainen/concierge/internal/fallback"
	"github.com/lepinkainen/concierge/internal/record"
)

// embeddedSheetField is the record column consulted when neither an
// override nor a configured sheet names the mutation target.
const embeddedSheetField = "sheet"

// Client is a view onto one sheet, or onto every sheet when constructed
// without a name, plus mutations that refresh the view afterwards.
//
// The view is replaced wholesale by each successful Load and never merged.
// Mutations are single round trips; concurrent ones are neither queued nor
// deduplicated, and overlapping Loads are not cancelled, so the last one to
// finish wins. Callers must treat returned tables as read-only.
type Client struct {
	repo     Repository
	table    string
	notifier Notifier
	fallback fallback.Policy
	logger   *slog.Logger

	mu       sync.RWMutex
	data     record.Table
	allData  record.Snapshot
	inflight int
	errMsg   string
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithNotifier sets where write failures are reported.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithFallback sets the data shown when a load fails. Without it a failed
// load keeps the previous view.
func WithFallback(p fallback.Policy) Option {
	return func(c *Client) {
		c.fallback = p
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for table, or for all tables when table is
// empty. It does not load; call Load to populate the view.
func NewClient(repo Repository, table string, opts ...Option) *Client {
	c := &Client{
		repo:   repo,
		table:  table,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = LogNotifier{Logger: c.logger}
	}
	return c
}

// Table returns the configured sheet name, empty in all-tables mode.
func (c *Client) Table() string {
	return c.table
}

// Data returns the rows of the configured sheet. It is nil in all-tables
// mode.
func (c *Client) Data() record.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.table == "" {
		return nil
	}
	return c.data
}

// AllData returns every sheet. It is nil in single-table mode.
func (c *Client) AllData() record.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.table != "" {
		return nil
	}
	return c.allData
}

// Loading reports whether any Load is in flight.
func (c *Client) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

// Err returns the message of the last failed Load, or "" after a
// successful one.
func (c *Client) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

// Load fetches the configured sheet (or all sheets) and replaces the view.
// On failure the error message is recorded and returned; the view keeps its
// previous contents unless a fallback policy supplies substitute data.
func (c *Client) Load(ctx context.Context) error {
	c.mu.Lock()
	c.inflight++
	c.errMsg = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight--
		c.mu.Unlock()
	}()

	snap, err := c.repo.Get(ctx, c.table)
	if err != nil {
		c.logger.Error("Error fetching sheet data", "sheet", c.table, "error", err)
		c.mu.Lock()
		c.errMsg = err.Error()
		c.applyFallback()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.table != "" {
		rows := snap[c.table]
		if rows == nil {
			rows = record.Table{}
		}
		c.data = rows
	} else {
		if snap == nil {
			snap = record.Snapshot{}
		}
		c.allData = snap
	}
	return nil
}

// applyFallback must be called with mu held.
func (c *Client) applyFallback() {
	if c.fallback == nil {
		return
	}
	if c.table != "" {
		rows, ok := c.fallback.Table(c.table)
		if !ok {
			rows = record.Table{}
		}
		c.data = rows
		return
	}
	snap := c.fallback.Snapshot()
	if snap == nil {
		snap = record.Snapshot{}
	}
	c.allData = snap
}

// Add appends rec to the target sheet and reloads on success.
// The target is the first non-empty override, else the configured sheet,
// else the record's own "sheet" column.
func (c *Client) Add(ctx context.Context, rec *record.Record, override ...string) bool {
	return c.perform(ctx, record.ActionAdd, rec, nil, override)
}

// Update replaces the row at index with rec and reloads on success.
// index refers to the ordering of the last loaded view.
func (c *Client) Update(ctx context.Context, index int, rec *record.Record, override ...string) bool {
	return c.perform(ctx, record.ActionUpdate, rec, &index, override)
}

// Delete removes the row at index and reloads on success.
func (c *Client) Delete(ctx context.Context, index int, override ...string) bool {
	return c.perform(ctx, record.ActionDelete, nil, &index, override)
}

// ResolveTarget returns the sheet a mutation of rec would be sent to, or ""
// when none can be determined.
func (c *Client) ResolveTarget(rec *record.Record, override ...string) string {
	for _, o := range override {
		if o != "" {
			return o
		}
	}
	if c.table != "" {
		return c.table
	}
	if rec != nil {
		return rec.String(embeddedSheetField)
	}
	return ""
}

func (c *Client) perform(ctx context.Context, action record.Action, rec *record.Record, index *int, override []string) bool {
	target := c.ResolveTarget(rec, override...)
	if target == "" {
		c.fail(action, errors.NewTargetSheetError(string(action)))
		return false
	}

	m := record.Mutation{Action: action, Sheet: target, RowData: rec, RowIndex: index}
	result, err := c.repo.Mutate(ctx, m)
	if err == nil {
		if msg, ok := result.Error(); ok {
			err = errors.NewRemoteError(http.StatusOK, msg)
		}
	}
	if err != nil {
		c.fail(action, err)
		return false
	}

	c.logger.Debug("Sheet mutation applied", "action", action, "sheet", target)
	if err := c.Load(ctx); err != nil {
		// the write went through; the stale view is reported via Err
		c.logger.Warn("Refresh after mutation failed", "action", action, "sheet", target, "error", err)
	}
	return true
}

func (c *Client) fail(action record.Action, err error) {
	c.logger.Error("Error performing sheet mutation", "action", action, "error", err)
	c.notifier.Notify(slog.LevelError, fmt.Sprintf("Failed to %s: %s", action, err.Error()))
}
