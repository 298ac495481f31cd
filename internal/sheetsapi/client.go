// Package sheetsapi implements sheets.Repository over HTTP against the
// concierge proxy endpoints.
package sheetsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/concierge/internal/errors"
	"github.com/lepinkainen/concierge/internal/record"
)

const (
	fetchPath = "/fetch-sheets-data"
	crudPath  = "/sheets-crud"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client reads and writes sheets through the proxy.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithAPIKey sets the key sent in the apikey and Authorization headers.
func WithAPIKey(key string) Option {
	return func(client *Client) {
		client.apiKey = key
	}
}

// WithTimeout bounds every request. Requests are unbounded otherwise.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a client for the proxy at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the proxy base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type sheetResponse struct {
	Data  record.Table `json:"data"`
	Sheet string       `json:"sheet"`
}

// Get fetches one sheet, or every sheet when table is empty.
func (c *Client) Get(ctx context.Context, table string) (record.Snapshot, error) {
	var body any
	if table != "" {
		body = map[string]string{"sheet": table}
	}

	raw, err := c.post(ctx, fetchPath, body)
	if err != nil {
		return nil, err
	}
	if msg, ok := record.PayloadError(raw); ok {
		return nil, errors.NewRemoteError(http.StatusOK, msg)
	}

	if table == "" {
		var snap record.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("failed to decode sheets response: %w", err)
		}
		if snap == nil {
			snap = record.Snapshot{}
		}
		return snap, nil
	}

	var resp sheetResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode sheet response: %w", err)
	}
	if resp.Data == nil {
		resp.Data = record.Table{}
	}
	return record.Snapshot{table: resp.Data}, nil
}

// Mutate sends an add, update or delete to the proxy.
func (c *Client) Mutate(ctx context.Context, m record.Mutation) (record.MutationResult, error) {
	raw, err := c.post(ctx, crudPath, m)
	if err != nil {
		return record.MutationResult{}, err
	}

	if msg, ok := record.PayloadError(raw); ok {
		return record.MutationResult{}, errors.NewRemoteError(http.StatusOK, msg)
	}
	var result record.MutationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return record.MutationResult{}, fmt.Errorf("failed to decode mutation response: %w", err)
	}
	return result, nil
}

// post sends body as JSON and returns the response body. Responses that
// carry an error field are reported as RemoteError whatever their status.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	slog.Debug("Calling sheets proxy", "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError(path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg, ok := record.PayloadError(raw); ok {
			return nil, errors.NewRemoteError(resp.StatusCode, msg)
		}
		return nil, errors.NewRemoteError(resp.StatusCode, "")
	}
	return raw, nil
}
