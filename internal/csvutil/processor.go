// Package csvutil converts between sheets and CSV files.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lepinkainen/concierge/internal/record"
)

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// SkipInvalid controls whether to skip invalid rows or return an error.
	SkipInvalid bool
}

// ProcessCSV reads a CSV file with a header row and parses each following
// row into type T. The parser receives the header alongside the row.
func ProcessCSV[T any](filename string, parser func(header, fields []string) (T, error), opts ProcessorOptions) ([]T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	reader := csv.NewReader(csvFile)
	// rows exported from a sheet may be ragged
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var items []T
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Error reading CSV row", "line", line, "error", err)
			continue
		}

		item, err := parser(header, fields)
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid CSV row", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid row on line %d: %w", line, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// ReadRecords reads a CSV file into records keyed by the header row.
// Numeric-looking cells become numbers, empty cells are omitted.
func ReadRecords(filename string) ([]*record.Record, error) {
	return ProcessCSV(filename, parseRecord, ProcessorOptions{})
}

func parseRecord(header, fields []string) (*record.Record, error) {
	if len(fields) > len(header) {
		return nil, fmt.Errorf("row has %d fields but header has %d", len(fields), len(header))
	}
	rec := record.New()
	for i, value := range fields {
		key := strings.TrimSpace(header[i])
		if key == "" || value == "" {
			continue
		}
		rec.Set(key, record.ParseValue(value))
	}
	if rec.Len() == 0 {
		return nil, fmt.Errorf("row is empty")
	}
	return rec, nil
}
