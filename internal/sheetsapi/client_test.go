package sheetsapi

import (
	"context"
	stdErrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/concierge/internal/errors"
	"github.com/lepinkainen/concierge/internal/record"
	"github.com/lepinkainen/concierge/internal/sheets"
)

func newProxy(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_GetSingleSheet(t *testing.T) {
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fetch-sheets-data", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"sheet":"ticket_management"}`, string(body))
		_, _ = io.WriteString(w, `{"data":[{"Ticket ID":"TCK-1","Status":"Open"}],"sheet":"ticket_management"}`)
	})

	snap, err := NewClient(ts.URL+"/").Get(context.Background(), "ticket_management")
	require.NoError(t, err)
	rows := snap["ticket_management"]
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Ticket ID", "Status"}, rows[0].Keys())
}

func TestClient_GetAllSheets(t *testing.T) {
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_, _ = io.WriteString(w, `{"agents":[{"Agent ID":"A-1"}],"rate_management":[]}`)
	})

	snap, err := NewClient(ts.URL).Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"agents", "rate_management"}, snap.Names())
}

func TestClient_GetMissingDataIsEmpty(t *testing.T) {
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"sheet":"x"}`)
	})

	snap, err := NewClient(ts.URL).Get(context.Background(), "x")
	require.NoError(t, err)
	assert.NotNil(t, snap["x"])
	assert.Len(t, snap["x"], 0)
}

func TestClient_GetPayloadError(t *testing.T) {
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"Sheet not found"}`)
	})

	_, err := NewClient(ts.URL).Get(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.IsRemoteError(err))
	assert.Equal(t, "Sheet not found", err.Error())
}

func TestClient_MutateSendsMutation(t *testing.T) {
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheets-crud", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"action":"updateRow","sheet":"rates","rowData":{"Price":250},"rowIndex":2}`, string(body))
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	result, err := NewClient(ts.URL).Mutate(context.Background(),
		record.UpdateRow("rates", 2, record.New("Price", 250)))
	require.NoError(t, err)
	assert.Equal(t, true, result.Value.(map[string]any)["success"])
}

func TestClient_MutateNonObjectSuccess(t *testing.T) {
	tests := []struct {
		name string
		body string
		want any
	}{
		{"string", `"Row added"`, "Row added"},
		{"array", `["ok"]`, []any{"ok"}},
		{"bool", `true`, true},
		{"null", `null`, nil},
		{"error string is not an error field", `"error"`, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			result, err := NewClient(ts.URL).Mutate(context.Background(), record.DeleteRow("rates", 0))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Value)
		})
	}
}

func TestClient_NonObjectSuccessKeepsClientWorking(t *testing.T) {
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sheets-crud":
			_, _ = io.WriteString(w, `"Row added"`)
		default:
			_, _ = io.WriteString(w, `{"data":[{"Price":100}],"sheet":"rates"}`)
		}
	})

	client := sheets.NewClient(NewClient(ts.URL), "rates")
	require.True(t, client.Add(context.Background(), record.New("Price", 100)))
	assert.Empty(t, client.Err())
	assert.Len(t, client.Data(), 1)
}

func TestClient_GetNullRow(t *testing.T) {
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[null,{"Room Type":"Cottage"}],"sheet":"rates"}`)
	})

	snap, err := NewClient(ts.URL).Get(context.Background(), "rates")
	require.NoError(t, err)
	rows := snap["rates"]
	require.Len(t, rows, 2, "positions are kept so indexes stay aligned")
	assert.Nil(t, rows[0])

	matched := rows.Filter("cottage")
	require.Len(t, matched, 1)
	assert.Equal(t, "Cottage", matched[0].String("Room Type"))
}

func TestClient_MutateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error field on 200", http.StatusOK, `{"error":"Sheet is protected","success":false}`, "Sheet is protected"},
		{"error field on 500", http.StatusInternalServerError, `{"error":"boom","success":false}`, "boom"},
		{"status without body", http.StatusBadGateway, ``, "request failed with status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := NewClient(ts.URL).Mutate(context.Background(), record.DeleteRow("rates", 0))
			require.Error(t, err)
			assert.True(t, errors.IsRemoteError(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestClient_APIKeyHeaders(t *testing.T) {
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := NewClient(ts.URL, WithAPIKey("secret")).Get(context.Background(), "")
	require.NoError(t, err)
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, stdErrors.New("connection refused")
}

func TestClient_TransportError(t *testing.T) {
	c := NewClient("http://proxy.invalid", WithHTTPClient(failingDoer{}))

	_, err := c.Mutate(context.Background(), record.DeleteRow("rates", 0))
	require.Error(t, err)
	assert.True(t, errors.IsTransportError(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestClient_WithTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	_, err := NewClient(ts.URL, WithTimeout(20*time.Millisecond)).Get(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.IsTransportError(err))
}

func TestClient_DrivesSheetsClient(t *testing.T) {
	var rows []string
	ts := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sheets-crud":
			rows = append(rows, "Jane")
			_, _ = io.WriteString(w, `{"success":true}`)
		case "/fetch-sheets-data":
			if len(rows) == 0 {
				_, _ = io.WriteString(w, `{"data":[],"sheet":"tickets"}`)
				return
			}
			_, _ = io.WriteString(w, `{"data":[{"Guest":"Jane","Room":"101"}],"sheet":"tickets"}`)
		}
	})

	client := sheets.NewClient(NewClient(ts.URL), "tickets")
	require.True(t, client.Add(context.Background(), record.New("Guest", "Jane", "Room", "101")))
	require.Len(t, client.Data(), 1)
	assert.Equal(t, "Jane", client.Data()[0].String("Guest"))
}
