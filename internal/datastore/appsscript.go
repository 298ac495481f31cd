package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lepinkainen/concierge/internal/errors"
	"github.com/lepinkainen/concierge/internal/ratelimit"
	"github.com/lepinkainen/concierge/internal/record"
)

const defaultUpstreamRate = 5

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// AppsScriptClient implements Store against a deployed spreadsheet web app.
// Reads are GET requests with an action query parameter, writes POST the
// mutation as JSON.
type AppsScriptClient struct {
	scriptURL string
	client    HTTPDoer
	limiter   *ratelimit.Limiter
}

// AppsScriptOption configures an AppsScriptClient.
type AppsScriptOption func(*AppsScriptClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) AppsScriptOption {
	return func(client *AppsScriptClient) {
		if c != nil {
			client.client = c
		}
	}
}

// WithRateLimiter sets the limiter applied to every upstream call.
// Passing nil disables limiting.
func WithRateLimiter(l *ratelimit.Limiter) AppsScriptOption {
	return func(client *AppsScriptClient) {
		client.limiter = l
	}
}

// WithTimeout bounds every upstream request. Requests are unbounded
// otherwise.
func WithTimeout(d time.Duration) AppsScriptOption {
	return func(client *AppsScriptClient) {
		if d > 0 {
			client.client = &http.Client{Timeout: d}
		}
	}
}

// NewAppsScriptClient creates a client for the web app at scriptURL.
func NewAppsScriptClient(scriptURL string, opts ...AppsScriptOption) (*AppsScriptClient, error) {
	u, err := url.Parse(scriptURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid Apps Script URL %q", scriptURL)
	}

	c := &AppsScriptClient{
		scriptURL: scriptURL,
		client:    &http.Client{},
		limiter:   ratelimit.New("apps-script", defaultUpstreamRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SheetData fetches one sheet with action=getSheetData.
func (c *AppsScriptClient) SheetData(ctx context.Context, sheet string) (record.Table, error) {
	var table record.Table
	if err := c.get(ctx, url.Values{"action": {"getSheetData"}, "sheet": {sheet}}, &table); err != nil {
		return nil, err
	}
	if table == nil {
		table = record.Table{}
	}
	return table, nil
}

// AllData fetches every sheet with action=getAllData.
func (c *AppsScriptClient) AllData(ctx context.Context) (record.Snapshot, error) {
	var snap record.Snapshot
	if err := c.get(ctx, url.Values{"action": {"getAllData"}}, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = record.Snapshot{}
	}
	return snap, nil
}

// Apply posts the mutation to the web app.
func (c *AppsScriptClient) Apply(ctx context.Context, m record.Mutation) (record.MutationResult, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return record.MutationResult{}, fmt.Errorf("failed to marshal mutation: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return record.MutationResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, bytes.NewReader(body))
	if err != nil {
		return record.MutationResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Calling Apps Script", "action", m.Action, "sheet", m.Sheet)
	raw, err := c.do(req)
	if err != nil {
		return record.MutationResult{}, err
	}

	if msg, ok := record.PayloadError(raw); ok {
		return record.MutationResult{}, errors.NewRemoteError(http.StatusOK, msg)
	}
	var result record.MutationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return record.MutationResult{}, fmt.Errorf("failed to decode Apps Script response: %w", err)
	}
	return result, nil
}

// Close is a no-op for the HTTP client
func (c *AppsScriptClient) Close() error {
	return nil
}

func (c *AppsScriptClient) get(ctx context.Context, params url.Values, target any) error {
	u, err := url.Parse(c.scriptURL)
	if err != nil {
		return fmt.Errorf("invalid Apps Script URL: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	slog.Debug("Calling Apps Script", "url", u.String())
	raw, err := c.do(req)
	if err != nil {
		return err
	}
	if msg, ok := record.PayloadError(raw); ok {
		return errors.NewRemoteError(http.StatusOK, msg)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode Apps Script response: %w", err)
	}
	return nil
}

func (c *AppsScriptClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewTransportError("Apps Script", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Debug("Apps Script error body", "status", resp.StatusCode, "body", strings.TrimSpace(string(body)))
		return nil, errors.NewRemoteError(resp.StatusCode, fmt.Sprintf("Apps Script request failed: %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError("Apps Script", err)
	}
	return raw, nil
}
