// Package fallback provides the default-value policies used when the
// spreadsheet cannot be read.
package fallback

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/concierge/internal/record"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Policy supplies substitute data for a failed read.
type Policy interface {
	// Table returns the substitute rows for one sheet, and whether the
	// policy has any.
	Table(name string) (record.Table, bool)
	// Snapshot returns substitute rows for every sheet the policy knows.
	Snapshot() record.Snapshot
}

// None never substitutes anything; failed reads stay failed.
type None struct{}

func (None) Table(string) (record.Table, bool) { return nil, false }
func (None) Snapshot() record.Snapshot          { return nil }

// Static serves a fixed dataset.
type Static struct {
	data record.Snapshot
}

// NewStatic wraps a snapshot. The snapshot is copied.
func NewStatic(data record.Snapshot) *Static {
	return &Static{data: data.Clone()}
}

// Table returns a copy of the named sheet.
func (s *Static) Table(name string) (record.Table, bool) {
	t, ok := s.data[name]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Snapshot returns a copy of the full dataset.
func (s *Static) Snapshot() record.Snapshot {
	return s.data.Clone()
}

var (
	defaultOnce   sync.Once
	defaultPolicy *Static
	defaultErr    error
)

// Default returns the built-in dataset shipped with the binary.
func Default() (*Static, error) {
	defaultOnce.Do(func() {
		var snap record.Snapshot
		snap, defaultErr = Parse(defaultsYAML)
		if defaultErr == nil {
			defaultPolicy = &Static{data: snap}
		}
	})
	return defaultPolicy, defaultErr
}

// LoadFile reads a dataset from a YAML file shaped like defaults.yaml.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback file: %w", err)
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback file %s: %w", path, err)
	}
	return &Static{data: snap}, nil
}

// Parse decodes a YAML mapping of sheet name to a list of rows. Column order
// inside each row is kept as written.
func Parse(data []byte) (record.Snapshot, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	snap := record.Snapshot{}
	if len(doc.Content) == 0 {
		return snap, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of sheet names", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		rows := root.Content[i+1]
		if rows.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: sheet %q must be a list of rows", rows.Line, name)
		}

		table := make(record.Table, 0, len(rows.Content))
		for _, row := range rows.Content {
			rec, err := decodeRow(row)
			if err != nil {
				return nil, fmt.Errorf("sheet %q: %w", name, err)
			}
			table = append(table, rec)
		}
		snap[name] = table
	}
	return snap, nil
}

func decodeRow(node *yaml.Node) (*record.Record, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: row must be a mapping", node.Line)
	}
	rec := record.New()
	for i := 0; i+1 < len(node.Content); i += 2 {
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Content[i+1].Line, err)
		}
		rec.Set(node.Content[i].Value, value)
	}
	return rec, nil
}
