package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Action names a write-endpoint operation.
type Action string

const (
	ActionAdd    Action = "addRow"
	ActionUpdate Action = "updateRow"
	ActionDelete Action = "deleteRow"
)

// Mutation is the write-endpoint request body.
type Mutation struct {
	Action   Action  `json:"action"`
	Sheet    string  `json:"sheet"`
	RowData  *Record `json:"rowData,omitempty"`
	RowIndex *int    `json:"rowIndex,omitempty"`
}

// AddRow builds an addRow mutation.
func AddRow(sheet string, rec *Record) Mutation {
	return Mutation{Action: ActionAdd, Sheet: sheet, RowData: rec}
}

// UpdateRow builds an updateRow mutation.
func UpdateRow(sheet string, index int, rec *Record) Mutation {
	return Mutation{Action: ActionUpdate, Sheet: sheet, RowIndex: &index, RowData: rec}
}

// DeleteRow builds a deleteRow mutation.
func DeleteRow(sheet string, index int) Mutation {
	return Mutation{Action: ActionDelete, Sheet: sheet, RowIndex: &index}
}

// Index returns the row index, or -1 when none was set.
func (m Mutation) Index() int {
	if m.RowIndex == nil {
		return -1
	}
	return *m.RowIndex
}

// Validate checks that the payload fits the action.
func (m Mutation) Validate() error {
	if m.Sheet == "" {
		return errors.New("sheet is required")
	}
	switch m.Action {
	case ActionAdd:
		if m.RowData == nil {
			return errors.New("addRow requires rowData")
		}
	case ActionUpdate:
		if m.RowData == nil {
			return errors.New("updateRow requires rowData")
		}
		if m.RowIndex == nil || *m.RowIndex < 0 {
			return errors.New("updateRow requires a non-negative rowIndex")
		}
	case ActionDelete:
		if m.RowIndex == nil || *m.RowIndex < 0 {
			return errors.New("deleteRow requires a non-negative rowIndex")
		}
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	return nil
}

// MutationResult is whatever the write endpoint returned on success. It is
// usually an object, but strings, arrays and scalars pass through unchanged.
type MutationResult struct {
	Value any
}

// Result wraps a success payload.
func Result(v any) MutationResult {
	return MutationResult{Value: v}
}

// MarshalJSON writes the payload as received.
func (r MutationResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts any JSON value.
func (r *MutationResult) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Value)
}

// Error returns the payload's error message, if any. Only objects can carry
// one.
func (r MutationResult) Error() (string, bool) {
	m, ok := r.Value.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := m["error"]
	if !ok || !Truthy(v) {
		return "", false
	}
	return FormatValue(v), true
}

// PayloadError extracts a truthy top-level "error" field from a raw JSON
// body. Anything other than an object reports false.
func PayloadError(raw []byte) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var body struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil || !Truthy(body.Error) {
		return "", false
	}
	return FormatValue(body.Error), true
}

// Truthy reports whether v counts as set: not nil, false, "" or 0.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	}
	return true
}
