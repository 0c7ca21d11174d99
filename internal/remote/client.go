// Package remote talks to the spreadsheet-backed JSON endpoint that stores
// matches, the watchlist, recommendations and approved leagues.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Resource names a collection on the endpoint
type Resource string

const (
	Matches         Resource = "matches"
	Watchlist       Resource = "watchlist"
	Recommendations Resource = "recommendations"
	ApprovedLeagues Resource = "approved_leagues"
)

// Action names an operation on a resource
type Action string

const (
	ActionGetAll Action = "getAll"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const maxBody = 16 << 20

// Client is a thin client for the remote store
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for endpoint. A zero timeout means 30s.
func NewClient(endpoint, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll loads every row of resource into out, which must be a pointer to a slice
func (c *Client) FetchAll(ctx context.Context, resource Resource, out any) error {
	op := fmt.Sprintf("%s.%s", resource, ActionGetAll)

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("invalid endpoint url: %w", err)}
	}
	q := u.Query()
	q.Set("resource", string(resource))
	q.Set("action", string(ActionGetAll))
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, op, resource, ActionGetAll)
	if err != nil {
		return err
	}

	var envelope struct {
		Items json.RawMessage `json:"items"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &ParseError{Op: op, Snippet: snippet(string(body)), Err: err}
	}
	if len(envelope.Items) == 0 || string(envelope.Items) == "null" {
		if envelope.Error != "" {
			return &ParseError{Op: op, Snippet: snippet(string(body)), Err: errors.New(envelope.Error)}
		}
		return &ParseError{Op: op, Field: "items", Snippet: snippet(string(body))}
	}
	if err := json.Unmarshal(envelope.Items, out); err != nil {
		return &ParseError{Op: op, Snippet: snippet(string(envelope.Items)), Err: err}
	}
	return nil
}

// Mutation is a write request
type Mutation struct {
	Resource Resource
	Action   Action
	Data     any
	IDs      []string
}

// Result is the decoded response to a mutation. Counts are nil when absent.
type Result struct {
	InsertedCount *int            `json:"insertedCount"`
	UpdatedCount  *int            `json:"updatedCount"`
	DeletedCount  *int            `json:"deletedCount"`
	Items         json.RawMessage `json:"items"`
	Error         string          `json:"error"`
}

// DecodeItems unmarshals the echoed items into out. It is a no-op when the
// server echoed nothing.
func (r *Result) DecodeItems(out any) error {
	if len(r.Items) == 0 || string(r.Items) == "null" {
		return nil
	}
	return json.Unmarshal(r.Items, out)
}

// Mutate sends m and decodes the response without checking any count field
func (c *Client) Mutate(ctx context.Context, m Mutation) (*Result, error) {
	op := fmt.Sprintf("%s.%s", m.Resource, m.Action)

	payload := map[string]any{
		"apiKey":   c.apiKey,
		"resource": m.Resource,
		"action":   m.Action,
	}
	if m.Data != nil {
		payload["data"] = m.Data
	}
	if m.IDs != nil {
		payload["ids"] = m.IDs
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal payload: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	// text/plain keeps the request "simple" for the Apps Script endpoint
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	body, err := c.do(req, op, m.Resource, m.Action)
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &ParseError{Op: op, Snippet: snippet(string(body)), Err: err}
	}
	return &res, nil
}

// Create inserts rows and requires insertedCount in the response
func (c *Client) Create(ctx context.Context, resource Resource, data any) (*Result, error) {
	res, err := c.Mutate(ctx, Mutation{Resource: resource, Action: ActionCreate, Data: data})
	if err != nil {
		return nil, err
	}
	return res, requireCount(res, res.InsertedCount, resource, ActionCreate, "insertedCount")
}

// Update modifies rows and requires updatedCount in the response
func (c *Client) Update(ctx context.Context, resource Resource, data any) (*Result, error) {
	res, err := c.Mutate(ctx, Mutation{Resource: resource, Action: ActionUpdate, Data: data})
	if err != nil {
		return nil, err
	}
	return res, requireCount(res, res.UpdatedCount, resource, ActionUpdate, "updatedCount")
}

// Delete removes rows by id and requires deletedCount in the response
func (c *Client) Delete(ctx context.Context, resource Resource, ids []string) (*Result, error) {
	res, err := c.Mutate(ctx, Mutation{Resource: resource, Action: ActionDelete, IDs: ids})
	if err != nil {
		return nil, err
	}
	return res, requireCount(res, res.DeletedCount, resource, ActionDelete, "deletedCount")
}

func requireCount(res *Result, count *int, resource Resource, action Action, field string) error {
	if count != nil {
		return nil
	}
	pe := &ParseError{Op: fmt.Sprintf("%s.%s", resource, action), Field: field}
	if res.Error != "" {
		pe.Err = errors.New(res.Error)
	}
	return pe
}

func (c *Client) do(req *http.Request, op string, resource Resource, action Action) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed",
			"resource", resource, "action", action, "error", err,
			"latency_ms", time.Since(start).Milliseconds())
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	c.logger.Debug("remote request",
		"resource", resource, "action", action, "status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
