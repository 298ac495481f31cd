package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lepinkainen/concierge/internal/cmdutil"
	"github.com/lepinkainen/concierge/internal/csvutil"
	"github.com/lepinkainen/concierge/internal/record"
	"github.com/lepinkainen/concierge/internal/sheets"
	"github.com/lepinkainen/concierge/internal/tui"
)

var now = time.Now

// ListCmd represents the list command
type ListCmd struct {
	Sheet  string `arg:"" optional:"" help:"Sheet name"`
	All    bool   `help:"List every sheet"`
	Search string `short:"s" help:"Only show rows with a value containing this text"`
	JSON   bool   `help:"Print rows as JSON"`
}

// GetCmd represents the get command
type GetCmd struct {
	Sheet string `arg:"" help:"Sheet name"`
	Index int    `arg:"" help:"Row index, starting at 0"`
}

// AddCmd represents the add command
type AddCmd struct {
	Sheet  string   `arg:"" help:"Sheet name"`
	Fields []string `arg:"" name:"field" help:"Column values as key=value"`
	NoID   bool     `name:"no-id" help:"Do not generate an ID for sheets that use one"`
}

// UpdateCmd represents the update command
type UpdateCmd struct {
	Sheet    string   `arg:"" help:"Sheet name"`
	Args     []string `arg:"" name:"index-and-fields" help:"Row index (unless --id is given) followed by key=value fields"`
	ID       string   `help:"Find the row by its ID instead of by index"`
	IDColumn string   `name:"id-column" help:"Column holding the ID (defaults to the sheet's ID column)"`
}

// DeleteCmd represents the delete command
type DeleteCmd struct {
	Sheet    string `arg:"" help:"Sheet name"`
	Index    string `arg:"" optional:"" help:"Row index, starting at 0"`
	ID       string `help:"Find the row by its ID instead of by index"`
	IDColumn string `name:"id-column" help:"Column holding the ID (defaults to the sheet's ID column)"`
}

// ImportCmd represents the import command
type ImportCmd struct {
	Sheet string `arg:"" help:"Sheet name"`
	Input string `short:"f" help:"Path to CSV file with a header row" required:""`
	NoID  bool   `name:"no-id" help:"Do not generate IDs for rows without one"`
}

// ExportCmd represents the export command
type ExportCmd struct {
	Sheet   string   `arg:"" help:"Sheet name"`
	Output  string   `short:"o" help:"Path to CSV output file (defaults to stdout)"`
	Columns []string `help:"Columns to export, in order (defaults to the sheet's columns)"`
}

// BrowseCmd represents the browse command
type BrowseCmd struct {
	Sheet  string `arg:"" help:"Sheet name"`
	Search string `short:"s" help:"Only show rows with a value containing this text"`
}

// withClient opens the configured repository, loads table (or every sheet
// when table is empty) and hands the client to fn.
func withClient(table string, fn func(ctx context.Context, c *sheets.Client) error) error {
	repo, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer func() { _ = closeRepo() }()

	notifier := sheets.NotifierFunc(func(level slog.Level, message string) {
		_, _ = fmt.Fprintln(os.Stderr, message)
	})
	client := sheets.NewClient(repo, table, sheets.WithNotifier(notifier))

	ctx := context.Background()
	if err := client.Load(ctx); err != nil {
		return fmt.Errorf("failed to load sheet data: %w", err)
	}
	return fn(ctx, client)
}

func (l *ListCmd) Run() error {
	if l.Sheet == "" && !l.All {
		return fmt.Errorf("sheet name is required (or pass --all)")
	}
	table := l.Sheet
	if l.All {
		table = ""
	}

	return withClient(table, func(_ context.Context, c *sheets.Client) error {
		if table != "" {
			return printTable(table, c.Data(), l.Search, l.JSON)
		}
		snap := c.AllData()
		if l.JSON {
			return printJSON(snap)
		}
		for _, name := range snap.Names() {
			if err := printTable(name, snap[name], l.Search, false); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout)
		}
		return nil
	})
}

func (g *GetCmd) Run() error {
	return withClient(g.Sheet, func(_ context.Context, c *sheets.Client) error {
		rows := c.Data()
		if g.Index < 0 || g.Index >= len(rows) {
			return fmt.Errorf("row index %d out of range for sheet %q (%d rows)", g.Index, g.Sheet, len(rows))
		}
		return printJSON(rows[g.Index])
	})
}

func (a *AddCmd) Run() error {
	rec, err := cmdutil.ParseAssignments(a.Fields)
	if err != nil {
		return err
	}
	if !a.NoID {
		if id := sheets.EnsureID(a.Sheet, rec, now()); id != "" {
			slog.Debug("Row ID", "sheet", a.Sheet, "id", id)
		}
	}

	return withClient(a.Sheet, func(ctx context.Context, c *sheets.Client) error {
		if !c.Add(ctx, rec) {
			return fmt.Errorf("failed to add row to %s", a.Sheet)
		}
		slog.Info("Row added", "sheet", a.Sheet, "rows", len(c.Data()))
		return nil
	})
}

func (u *UpdateCmd) Run() error {
	args := u.Args
	indexArg := ""
	if u.ID == "" {
		if len(args) == 0 {
			return fmt.Errorf("row index is required (or pass --id)")
		}
		indexArg, args = args[0], args[1:]
	}
	rec, err := cmdutil.ParseAssignments(args)
	if err != nil {
		return err
	}

	return withClient(u.Sheet, func(ctx context.Context, c *sheets.Client) error {
		index, err := resolveIndex(c, indexArg, u.ID, u.IDColumn)
		if err != nil {
			return err
		}
		if !c.Update(ctx, index, rec) {
			return fmt.Errorf("failed to update row %d of %s", index, u.Sheet)
		}
		slog.Info("Row updated", "sheet", u.Sheet, "index", index)
		return nil
	})
}

func (d *DeleteCmd) Run() error {
	if d.Index == "" && d.ID == "" {
		return fmt.Errorf("row index is required (or pass --id)")
	}

	return withClient(d.Sheet, func(ctx context.Context, c *sheets.Client) error {
		index, err := resolveIndex(c, d.Index, d.ID, d.IDColumn)
		if err != nil {
			return err
		}
		if !c.Delete(ctx, index) {
			return fmt.Errorf("failed to delete row %d of %s", index, d.Sheet)
		}
		slog.Info("Row deleted", "sheet", d.Sheet, "index", index)
		return nil
	})
}

func (i *ImportCmd) Run() error {
	recs, err := csvutil.ReadRecords(i.Input)
	if err != nil {
		return err
	}

	return withClient(i.Sheet, func(ctx context.Context, c *sheets.Client) error {
		added := 0
		for n, rec := range recs {
			if !i.NoID {
				// distinct timestamps keep generated IDs unique within one import
				sheets.EnsureID(i.Sheet, rec, now().Add(time.Duration(n)*time.Millisecond))
			}
			if !c.Add(ctx, rec) {
				return fmt.Errorf("failed to import row %d of %s (%d rows added)", n+1, i.Input, added)
			}
			added++
		}
		slog.Info("Import complete", "sheet", i.Sheet, "rows_added", added)
		return nil
	})
}

func (e *ExportCmd) Run() error {
	return withClient(e.Sheet, func(_ context.Context, c *sheets.Client) error {
		columns := e.Columns
		if len(columns) == 0 {
			if info, ok := sheets.Lookup(e.Sheet); ok {
				columns = info.ExportColumns
			}
		}

		if e.Output == "" {
			return csvutil.WriteTable(stdout, c.Data(), columns)
		}

		if err := cmdutil.SetupOutputPath(e.Output); err != nil {
			return err
		}
		f, err := os.Create(e.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := csvutil.WriteTable(f, c.Data(), columns); err != nil {
			return err
		}
		slog.Info("Export complete", "sheet", e.Sheet, "rows", len(c.Data()), "file", e.Output)
		return nil
	})
}

func (b *BrowseCmd) Run() error {
	return withClient(b.Sheet, func(_ context.Context, c *sheets.Client) error {
		rows := c.Data()
		result, err := browseTable(b.Sheet, rows, b.Search)
		if err != nil {
			return err
		}
		if result.Action != tui.ActionSelected {
			return nil
		}
		_, _ = fmt.Fprintf(stdout, "Row %d\n", result.Index)
		return printJSON(rows[result.Index])
	})
}

// resolveIndex turns a positional index or an ID into a row index of the
// loaded sheet.
func resolveIndex(c *sheets.Client, indexArg, id, idColumn string) (int, error) {
	rows := c.Data()
	if id == "" {
		index, err := strconv.Atoi(indexArg)
		if err != nil {
			return 0, fmt.Errorf("invalid row index %q", indexArg)
		}
		if index < 0 || index >= len(rows) {
			return 0, fmt.Errorf("row index %d out of range for sheet %q (%d rows)", index, c.Table(), len(rows))
		}
		return index, nil
	}

	if idColumn == "" {
		info, ok := sheets.Lookup(c.Table())
		if !ok || info.IDColumn == "" {
			return 0, fmt.Errorf("sheet %q has no known ID column (pass --id-column)", c.Table())
		}
		idColumn = info.IDColumn
	}
	index := rows.IndexOf(idColumn, id)
	if index < 0 {
		return 0, fmt.Errorf("no row with %s %q in sheet %q", idColumn, id, c.Table())
	}
	return index, nil
}

func printTable(name string, rows record.Table, search string, asJSON bool) error {
	var indexes []int
	shown := record.Table{}
	for i, rec := range rows {
		if rec.Matches(search) {
			indexes = append(indexes, i)
			shown = append(shown, rec)
		}
	}

	if asJSON {
		return printJSON(shown)
	}

	_, _ = fmt.Fprintf(stdout, "%s (%d of %d rows)\n", name, len(shown), len(rows))
	if len(shown) == 0 {
		return nil
	}

	columns := shown.Columns()
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "#\t%s\n", strings.Join(columns, "\t"))
	for i, rec := range shown {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = strings.Join(strings.Fields(rec.String(col)), " ")
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\n", indexes[i], strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
