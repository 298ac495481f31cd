package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lepinkainen/concierge/internal/errors"
	"github.com/lepinkainen/concierge/internal/record"

	_ "modernc.org/sqlite"
)

// sheetSchema stores each row as a JSON object with its position in the
// sheet. Positions are compacted on delete so they always run 0..n-1.
const sheetSchema = `
CREATE TABLE IF NOT EXISTS sheets (
	name TEXT PRIMARY KEY NOT NULL
);

CREATE TABLE IF NOT EXISTS sheet_rows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sheet TEXT NOT NULL REFERENCES sheets(name),
	position INTEGER NOT NULL,
	data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sheet_rows_position ON sheet_rows(sheet, position);
`

// SQLiteStore implements Store on a local SQLite file. It stands in for the
// spreadsheet during development and offline use.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
	}
}

// Connect opens the database and creates the schema if needed
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// positions are read-modify-write; keep a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sheetSchema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create sheet tables: %w", err)
	}
	s.db = db
	return nil
}

// CreateSheet registers an empty sheet so it shows up in AllData.
func (s *SQLiteStore) CreateSheet(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO sheets (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}
	return nil
}

// SheetData returns the rows of one sheet in position order. Unknown sheets
// are empty.
func (s *SQLiteStore) SheetData(ctx context.Context, sheet string) (record.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM sheet_rows WHERE sheet = ? ORDER BY position`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet %q: %w", sheet, err)
	}
	defer func() { _ = rows.Close() }()

	table := record.Table{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := record.New()
		if err := json.Unmarshal([]byte(data), rec); err != nil {
			return nil, fmt.Errorf("failed to decode row in %q: %w", sheet, err)
		}
		table = append(table, rec)
	}
	return table, rows.Err()
}

// AllData returns every registered sheet, including empty ones.
func (s *SQLiteStore) AllData(ctx context.Context) (record.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sheets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan sheet name: %w", err)
		}
		names = append(names, name)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snap := make(record.Snapshot, len(names))
	for _, name := range names {
		table, err := s.SheetData(ctx, name)
		if err != nil {
			return nil, err
		}
		snap[name] = table
	}
	return snap, nil
}

// Apply performs the mutation inside a transaction.
func (s *SQLiteStore) Apply(ctx context.Context, m record.Mutation) (record.MutationResult, error) {
	if err := m.Validate(); err != nil {
		return record.MutationResult{}, errors.NewRemoteError(http.StatusBadRequest, err.Error())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.MutationResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback if we don't commit - ignore errors as they're expected if transaction was committed
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sheets (name) VALUES (?)`, m.Sheet); err != nil {
		return record.MutationResult{}, fmt.Errorf("failed to register sheet: %w", err)
	}

	var index int
	switch m.Action {
	case record.ActionAdd:
		index, err = s.addRow(ctx, tx, m.Sheet, m.RowData)
	case record.ActionUpdate:
		index, err = m.Index(), s.updateRow(ctx, tx, m.Sheet, m.Index(), m.RowData)
	case record.ActionDelete:
		index, err = m.Index(), s.deleteRow(ctx, tx, m.Sheet, m.Index())
	}
	if err != nil {
		return record.MutationResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return record.MutationResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return record.Result(map[string]any{
		"success":  true,
		"action":   string(m.Action),
		"sheet":    m.Sheet,
		"rowIndex": float64(index),
	}), nil
}

func (s *SQLiteStore) addRow(ctx context.Context, tx *sql.Tx, sheet string, rec *record.Record) (int, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to encode row: %w", err)
	}

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM sheet_rows WHERE sheet = ?`, sheet).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to find next position: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sheet_rows (sheet, position, data) VALUES (?, ?, ?)`, sheet, next, string(data)); err != nil {
		return 0, fmt.Errorf("failed to insert row: %w", err)
	}
	return next, nil
}

func (s *SQLiteStore) updateRow(ctx context.Context, tx *sql.Tx, sheet string, index int, rec *record.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE sheet_rows SET data = ? WHERE sheet = ? AND position = ?`, string(data), sheet, index)
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	return requireRow(res, sheet, index)
}

func (s *SQLiteStore) deleteRow(ctx context.Context, tx *sql.Tx, sheet string, index int) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_rows WHERE sheet = ? AND position = ?`, sheet, index)
	if err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}
	if err := requireRow(res, sheet, index); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sheet_rows SET position = position - 1 WHERE sheet = ? AND position > ?`, sheet, index); err != nil {
		return fmt.Errorf("failed to compact positions: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, sheet string, index int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return errors.NewRemoteError(http.StatusNotFound,
			fmt.Sprintf("row index %d out of range for sheet %q", index, sheet))
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
