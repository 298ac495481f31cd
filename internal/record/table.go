package record

import "sort"

// Table is an ordered sequence of records sharing a sheet name.
// A record's identity is its position in the most recently fetched table.
type Table []*Record

// Snapshot maps sheet names to their tables.
type Snapshot map[string]Table

// IndexOf returns the position of the first row whose column equals value
// (compared as rendered text), or -1.
func (t Table) IndexOf(column, value string) int {
	for i, r := range t {
		if r.Has(column) && r.String(column) == value {
			return i
		}
	}
	return -1
}

// Columns returns the union of all column names in first-seen order.
func (t Table) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range t {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// Filter returns the rows matching term. Positions in the result are not
// row indexes of t.
func (t Table) Filter(term string) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.Matches(term) {
			out = append(out, r)
		}
	}
	return out
}

// Clone deep-copies the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, r := range t {
		out[i] = r.Clone()
	}
	return out
}

// Names returns the sheet names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for name, t := range s {
		out[name] = t.Clone()
	}
	return out
}
