package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/lepinkainen/concierge/internal/record"
)

// WriteTable writes a header row of columns followed by one row per record.
// Missing values are written as empty cells. When columns is empty the
// table's own column order is used.
func WriteTable(w io.Writer, table record.Table, columns []string) error {
	if len(columns) == 0 {
		columns = table.Columns()
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(columns))
	for _, rec := range table {
		for i, col := range columns {
			row[i] = rec.String(col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
