package datastore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/concierge/internal/errors"
	"github.com/lepinkainen/concierge/internal/record"
)

func newScriptClient(t *testing.T, handler http.HandlerFunc) *AppsScriptClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewAppsScriptClient(ts.URL+"/exec", WithRateLimiter(nil))
	require.NoError(t, err)
	return client
}

func TestNewAppsScriptClient_InvalidURL(t *testing.T) {
	_, err := NewAppsScriptClient("not a url")
	assert.Error(t, err)
}

func TestAppsScriptClient_SheetData(t *testing.T) {
	client := newScriptClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/exec", r.URL.Path)
		assert.Equal(t, "getSheetData", r.URL.Query().Get("action"))
		assert.Equal(t, "Dos and Donts", r.URL.Query().Get("sheet"))
		_, _ = io.WriteString(w, `[{"Rule ID":"P-001","Type":"Do"}]`)
	})

	rows, err := client.SheetData(context.Background(), "Dos and Donts")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Rule ID", "Type"}, rows[0].Keys())
}

func TestAppsScriptClient_AllData(t *testing.T) {
	client := newScriptClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getAllData", r.URL.Query().Get("action"))
		assert.Empty(t, r.URL.Query().Get("sheet"))
		_, _ = io.WriteString(w, `{"agents":[{"Agent ID":"A-001"}],"rates":[]}`)
	})

	snap, err := client.AllData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"agents", "rates"}, snap.Names())
}

func TestAppsScriptClient_PayloadError(t *testing.T) {
	client := newScriptClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"Sheet not found: bogus"}`)
	})

	_, err := client.SheetData(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, errors.IsRemoteError(err))
	assert.Equal(t, "Sheet not found: bogus", err.Error())
}

func TestAppsScriptClient_StatusError(t *testing.T) {
	client := newScriptClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.AllData(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Apps Script request failed: 502", err.Error())
}

func TestAppsScriptClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client, err := NewAppsScriptClient(url, WithRateLimiter(nil))
	require.NoError(t, err)

	_, err = client.SheetData(context.Background(), "T")
	require.Error(t, err)
	assert.True(t, errors.IsTransportError(err))
}

func TestAppsScriptClient_Apply(t *testing.T) {
	var got map[string]any
	client := newScriptClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	res, err := client.Apply(context.Background(), record.UpdateRow("rates", 2, record.New("Price", 120)))
	require.NoError(t, err)
	assert.Equal(t, true, res.Value.(map[string]any)["success"])

	assert.Equal(t, "updateRow", got["action"])
	assert.Equal(t, "rates", got["sheet"])
	assert.Equal(t, float64(2), got["rowIndex"])
	assert.Equal(t, map[string]any{"Price": float64(120)}, got["rowData"])
}

func TestAppsScriptClient_ApplyPayloadError(t *testing.T) {
	client := newScriptClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"Row out of range","success":false}`)
	})

	_, err := client.Apply(context.Background(), record.DeleteRow("rates", 99))
	require.Error(t, err)
	assert.True(t, errors.IsRemoteError(err))
	assert.Equal(t, "Row out of range", err.Error())
}

func TestAppsScriptClient_ApplyNonObjectSuccess(t *testing.T) {
	tests := []struct {
		name string
		body string
		want any
	}{
		{"string", `"Row added"`, "Row added"},
		{"array", `["ok"]`, []any{"ok"}},
		{"number", `1`, float64(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newScriptClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			res, err := client.Apply(context.Background(), record.AddRow("rates", record.New("Price", 100)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestAppsScriptClient_DefaultHasNoTimeout(t *testing.T) {
	client, err := NewAppsScriptClient("https://script.example.com/exec")
	require.NoError(t, err)

	httpClient, ok := client.client.(*http.Client)
	require.True(t, ok)
	assert.Zero(t, httpClient.Timeout)

	client, err = NewAppsScriptClient("https://script.example.com/exec", WithTimeout(5*time.Second))
	require.NoError(t, err)
	httpClient, ok = client.client.(*http.Client)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, httpClient.Timeout)
}
