// Package record holds the schema-less row types shared by the sheet client,
// the proxy and the backing stores.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field is a single column/value pair of a Record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered mapping from column name to a scalar value.
// Values are strings, float64 numbers, bools or nil. Column order is kept
// exactly as built or decoded.
type Record struct {
	fields []Field
}

// New builds a record from alternating key/value arguments.
// It panics on an odd argument count or a non-string key, like the
// slog attribute helpers it mirrors.
func New(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("record.New: odd number of arguments")
	}
	r := &Record{fields: make([]Field, 0, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("record.New: key %v is not a string", kv[i]))
		}
		r.Set(key, kv[i+1])
	}
	return r
}

// FromMap builds a record from a plain map. Keys are sorted since map order
// carries no meaning.
func FromMap(m map[string]any) *Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r := &Record{fields: make([]Field, 0, len(keys))}
	for _, k := range keys {
		r.fields = append(r.fields, Field{Key: k, Value: normalize(m[k])})
	}
	return r
}

// Set assigns a value, keeping the position of an existing key.
func (r *Record) Set(key string, value any) {
	value = normalize(value)
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Prepend places key first, moving it if it already exists.
func (r *Record) Prepend(key string, value any) {
	r.Delete(key)
	r.fields = append([]Field{{Key: key, Value: normalize(value)}}, r.fields...)
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Delete removes key if present.
func (r *Record) Delete(key string) {
	if r == nil {
		return
	}
	for i, f := range r.fields {
		if f.Key == key {
			r.fields = append(r.fields[:i], r.fields[i+1:]...)
			return
		}
	}
}

// Keys returns the column names in order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the ordered fields.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of columns.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Clone returns an independent copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{fields: r.Fields()}
}

// String renders the value under key the way the dashboard displays it.
// Missing keys and nil render as "".
func (r *Record) String(key string) string {
	v, _ := r.Get(key)
	return FormatValue(v)
}

// Float returns the numeric value under key. Numeric strings are accepted,
// including thousands separators.
func (r *Record) Float(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Matches reports whether any value contains term, ignoring case.
// An empty term matches every row except a null one.
func (r *Record) Matches(term string) bool {
	if r == nil {
		return false
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range r.fields {
		if strings.Contains(strings.ToLower(FormatValue(f.Value)), term) {
			return true
		}
	}
	return false
}

// Map returns the record as a plain map, losing column order.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, r.Len())
	for _, f := range r.Fields() {
		m[f.Key] = f.Value
	}
	return m
}

// MarshalJSON writes the fields as a JSON object in column order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	r.fields = r.fields[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected object key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("record: column %q: %w", key, err)
		}
		r.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// FormatValue renders a scalar like a spreadsheet cell: integers without a
// decimal point, nil as the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// ParseValue turns command line or CSV text into a record value. Plain
// decimal numbers become float64, everything else stays a string.
func ParseValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !strings.ContainsAny(trimmed, "xXeEiInN_") {
		// keep identifiers such as "007" or "+1234567890" as text
		if (strings.HasPrefix(trimmed, "0") && len(trimmed) > 1 && trimmed[1] != '.') || strings.HasPrefix(trimmed, "+") {
			return s
		}
		return f
	}
	return s
}

// normalize maps Go numeric types onto float64 so values compare the same
// before and after a JSON round trip.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}
