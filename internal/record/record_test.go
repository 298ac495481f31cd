package record

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestRecordKeepsColumnOrder(t *testing.T) {
	r := New("Ticket ID", "TCK-1", "Guest Name", "Jane", "Room No", "101")
	r.Set("Guest Name", "Janet")

	assert.Equal(t, []string{"Ticket ID", "Guest Name", "Room No"}, r.Keys())
	assert.Equal(t, "Janet", r.String("Guest Name"))
}

func TestRecordJSONRoundTripPreservesOrder(t *testing.T) {
	input := `{"Zeta":"z","Alpha":1,"Mid":null,"Flag":true}`

	var r Record
	assert.NoError(t, json.Unmarshal([]byte(input), &r))
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid", "Flag"}, r.Keys())

	out, err := json.Marshal(&r)
	assert.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestRecordNumbersNormalizeToFloat(t *testing.T) {
	r := New("A", "x", "B", 1)

	v, ok := r.Get("B")
	assert.True(t, ok)
	assert.Equal(t, any(float64(1)), v)
	assert.Equal(t, "1", r.String("B"))
}

func TestRecordFloatAcceptsNumericStrings(t *testing.T) {
	r := New("Revenue", "1,250.50", "Rooms", 3, "Notes", "n/a")

	f, ok := r.Float("Revenue")
	assert.True(t, ok)
	assert.Equal(t, 1250.5, f)

	f, ok = r.Float("Rooms")
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = r.Float("Notes")
	assert.False(t, ok)
	_, ok = r.Float("Missing")
	assert.False(t, ok)
}

func TestRecordMatchesIsCaseInsensitive(t *testing.T) {
	r := New("Guest Name", "Rajiv Mehta", "Room No", 101)

	assert.True(t, r.Matches("rajiv"))
	assert.True(t, r.Matches("10"))
	assert.True(t, r.Matches(""))
	assert.False(t, r.Matches("neha"))
}

func TestRecordCloneIsIndependent(t *testing.T) {
	r := New("A", "x")
	c := r.Clone()
	c.Set("A", "y")
	c.Set("B", "z")

	assert.Equal(t, "x", r.String("A"))
	assert.False(t, r.Has("B"))
}

func TestRecordUnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &r))
}

func TestNewPanicsOnOddArguments(t *testing.T) {
	assert.Panics(t, func() { New("A") })
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"100", float64(100)},
		{"12.5", 12.5},
		{"0.5", 0.5},
		{"-3", float64(-3)},
		{"007", "007"},
		{"+1234567890", "+1234567890"},
		{"1e5", "1e5"},
		{"NaN", "NaN"},
		{"Room 101", "Room 101"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.in))
		})
	}
}

func TestTableHelpers(t *testing.T) {
	table := Table{
		New("Ticket ID", "TCK-1", "Status", "Open"),
		New("Ticket ID", "TCK-2", "Status", "Resolved", "Notes", "done"),
	}

	assert.Equal(t, 1, table.IndexOf("Ticket ID", "TCK-2"))
	assert.Equal(t, -1, table.IndexOf("Ticket ID", "TCK-9"))
	assert.Equal(t, []string{"Ticket ID", "Status", "Notes"}, table.Columns())
	assert.Equal(t, 1, len(table.Filter("resolved")))
}

func TestSnapshotNames(t *testing.T) {
	s := Snapshot{"rates": nil, "Booking_Info": nil, "agents": nil}
	assert.Equal(t, []string{"Booking_Info", "agents", "rates"}, s.Names())
}

func TestMutationValidate(t *testing.T) {
	rec := New("A", "x")
	tests := []struct {
		name    string
		m       Mutation
		wantErr bool
	}{
		{"add ok", AddRow("T", rec), false},
		{"add without data", Mutation{Action: ActionAdd, Sheet: "T"}, true},
		{"update ok", UpdateRow("T", 0, rec), false},
		{"update negative", UpdateRow("T", -1, rec), true},
		{"delete ok", DeleteRow("T", 3), false},
		{"delete without index", Mutation{Action: ActionDelete, Sheet: "T"}, true},
		{"missing sheet", AddRow("", rec), true},
		{"unknown action", Mutation{Action: "dropTable", Sheet: "T"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMutationWireShape(t *testing.T) {
	out, err := json.Marshal(AddRow("tickets", New("Guest", "Jane", "Room", "101")))
	assert.NoError(t, err)
	assert.Equal(t, `{"action":"addRow","sheet":"tickets","rowData":{"Guest":"Jane","Room":"101"}}`, string(out))

	out, err = json.Marshal(DeleteRow("tickets", 0))
	assert.NoError(t, err)
	assert.Equal(t, `{"action":"deleteRow","sheet":"tickets","rowIndex":0}`, string(out))
}

func TestMutationResultError(t *testing.T) {
	msg, ok := Result(map[string]any{"error": "Sheet not found"}).Error()
	assert.True(t, ok)
	assert.Equal(t, "Sheet not found", msg)

	_, ok = Result(map[string]any{"success": true}).Error()
	assert.False(t, ok)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0.0))
	assert.True(t, Truthy("boom"))
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(map[string]any{}))

	_, ok := Result(map[string]any{"error": ""}).Error()
	assert.False(t, ok)
}

func TestRecordPrepend(t *testing.T) {
	r := New("Guest Name", "Jane", "Ticket ID", "")
	r.Prepend("Ticket ID", "TCK-1")

	assert.Equal(t, []string{"Ticket ID", "Guest Name"}, r.Keys())
	assert.Equal(t, "TCK-1", r.String("Ticket ID"))
}

func TestMutationResultAcceptsAnyJSON(t *testing.T) {
	for _, body := range []string{`"Row added"`, `["ok"]`, `true`, `3`, `null`, `{"success":true}`} {
		var res MutationResult
		assert.NoError(t, json.Unmarshal([]byte(body), &res))
		_, failed := res.Error()
		assert.False(t, failed, body)

		out, err := json.Marshal(res)
		assert.NoError(t, err)
		assert.Equal(t, body, string(out))
	}
}

func TestPayloadError(t *testing.T) {
	tests := []struct {
		body    string
		message string
		failed  bool
	}{
		{`{"error":"Sheet not found"}`, "Sheet not found", true},
		{`  {"error":"boom","success":false}`, "boom", true},
		{`{"error":""}`, "", false},
		{`{"error":false}`, "", false},
		{`{"success":true}`, "", false},
		{`"error"`, "", false},
		{`["error"]`, "", false},
		{``, "", false},
		{`{not json`, "", false},
	}
	for _, tt := range tests {
		msg, failed := PayloadError([]byte(tt.body))
		assert.Equal(t, tt.failed, failed, tt.body)
		assert.Equal(t, tt.message, msg, tt.body)
	}
}

func TestTableWithNullRow(t *testing.T) {
	var table Table
	assert.NoError(t, json.Unmarshal([]byte(`[null,{"Room Type":"Cottage"}]`), &table))
	assert.Equal(t, 2, len(table))

	assert.False(t, table[0].Matches(""))
	assert.False(t, table[0].Matches("cottage"))
	table[0].Delete("Room Type")

	matched := table.Filter("cottage")
	assert.Equal(t, 1, len(matched))
	assert.Equal(t, "Cottage", matched[0].String("Room Type"))
	assert.Equal(t, 1, table.IndexOf("Room Type", "Cottage"))
	assert.Equal(t, []string{"Room Type"}, table.Columns())
}
