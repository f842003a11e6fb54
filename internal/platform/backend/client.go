// Package backend is a client for the remote record backend that stores the catalog
// tables. Every response is a {success, message, data|results} envelope.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 4 << 20

	projectHeader = "X-Project-Id"
	keyHeader     = "X-Public-Key"
)

// Observer receives the outcome of every backend call.
type Observer func(ctx context.Context, table, op string, elapsed time.Duration, err error)

// Config configures a Client.
type Config struct {
	BaseURL    string
	ProjectID  string
	PublicKey  string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Backoff    gax.Backoff
	Observer   Observer
}

// Client issues record operations against one backend project.
type Client struct {
	baseURL    string
	projectID  string
	publicKey  string
	http       *http.Client
	maxRetries int
	backoff    gax.Backoff
	observe    Observer
}

// Field selects a column in fetch requests.
type Field struct {
	Field struct {
		Name string `json:"Name"`
	} `json:"field"`
}

// Fields builds a field selection list from column names.
func Fields(names ...string) []Field {
	out := make([]Field, len(names))
	for i, name := range names {
		out[i].Field.Name = name
	}
	return out
}

type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

type PagingInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FetchParams is the query body for FetchRecords.
type FetchParams struct {
	Fields     []Field     `json:"fields,omitempty"`
	OrderBy    []OrderBy   `json:"orderBy,omitempty"`
	PagingInfo *PagingInfo `json:"pagingInfo,omitempty"`
}

// RecordResult is one per-record outcome of a create, update or delete.
type RecordResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Results []RecordResult  `json:"results"`
}

// Failure reports an unsuccessful backend call: a transport error, a non-2xx status or an
// envelope with success=false.
type Failure struct {
	Table   string
	Op      string
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" && f.Err != nil {
		msg = f.Err.Error()
	}
	if f.Status != 0 {
		return fmt.Sprintf("backend %s %s: status %d: %s", f.Op, f.Table, f.Status, msg)
	}
	return fmt.Sprintf("backend %s %s: %s", f.Op, f.Table, msg)
}

func (f *Failure) Unwrap() error { return f.Err }

// NotFound reports whether the backend answered 404 for the record.
func (f *Failure) NotFound() bool { return f.Status == http.StatusNotFound }

func (f *Failure) retryable() bool {
	if f.Status == 0 {
		return !errors.Is(f.Err, context.Canceled) && !errors.Is(f.Err, context.DeadlineExceeded)
	}
	return f.Status == http.StatusTooManyRequests || f.Status >= http.StatusInternalServerError
}

// NewClient validates cfg and builds a client with an instrumented transport.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("backend: project id is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	backoff := cfg.Backoff
	if backoff.Initial == 0 {
		backoff = gax.Backoff{Initial: 100 * time.Millisecond, Max: 2 * time.Second, Multiplier: 2}
	}
	observe := cfg.Observer
	if observe == nil {
		observe = func(context.Context, string, string, time.Duration, error) {}
	}
	return &Client{
		baseURL:    base,
		projectID:  cfg.ProjectID,
		publicKey:  cfg.PublicKey,
		http:       httpClient,
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		observe:    observe,
	}, nil
}

// FetchRecords queries a table and returns the raw records.
func (c *Client) FetchRecords(ctx context.Context, table string, params FetchParams) ([]json.RawMessage, error) {
	env, err := c.do(ctx, table, "fetch", http.MethodPost, "/records/fetch", params, true)
	if err != nil {
		return nil, err
	}
	return decodeList(table, env.Data)
}

// GetRecordByID loads a single record.
func (c *Client) GetRecordByID(ctx context.Context, table string, id int64, fields []Field) (json.RawMessage, error) {
	path := "/records/" + strconv.FormatInt(id, 10)
	if len(fields) > 0 {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Field.Name
		}
		path += "?fields=" + url.QueryEscape(strings.Join(names, ","))
	}
	env, err := c.do(ctx, table, "get", http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &Failure{Table: table, Op: "get", Status: http.StatusNotFound, Message: "record not found"}
	}
	return env.Data, nil
}

// CreateRecord creates one record and returns the stored record.
func (c *Client) CreateRecord(ctx context.Context, table string, record any) (json.RawMessage, error) {
	env, err := c.do(ctx, table, "create", http.MethodPost, "/records", map[string]any{"records": []any{record}}, false)
	if err != nil {
		return nil, err
	}
	return firstSuccess(table, "create", env.Results)
}

// UpdateRecord updates one record. The record must carry its Id.
func (c *Client) UpdateRecord(ctx context.Context, table string, record any) (json.RawMessage, error) {
	env, err := c.do(ctx, table, "update", http.MethodPatch, "/records", map[string]any{"records": []any{record}}, false)
	if err != nil {
		return nil, err
	}
	return firstSuccess(table, "update", env.Results)
}

// DeleteRecord deletes one record by id.
func (c *Client) DeleteRecord(ctx context.Context, table string, id int64) error {
	env, err := c.do(ctx, table, "delete", http.MethodDelete, "/records", map[string]any{"RecordIds": []int64{id}}, false)
	if err != nil {
		return err
	}
	_, err = firstSuccess(table, "delete", env.Results)
	return err
}

// Ping checks that the backend answers for the project.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "", "ping", http.MethodGet, "/health", nil, false)
	return err
}

func (c *Client) do(ctx context.Context, table, op, method, path string, body any, idempotent bool) (envelope, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("backend: encode %s request: %w", op, err)
		}
		payload = encoded
	}

	endpoint := c.baseURL + "/v1/projects/" + url.PathEscape(c.projectID)
	if table != "" {
		endpoint += "/tables/" + url.PathEscape(table)
	}
	endpoint += path

	attempts := 1
	if idempotent {
		attempts += c.maxRetries
	}
	backoff := c.backoff

	start := time.Now()
	var (
		env envelope
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		env, err = c.once(ctx, table, op, method, endpoint, payload)
		var failure *Failure
		if err == nil || attempt == attempts || !errors.As(err, &failure) || !failure.retryable() {
			break
		}
		if sleepErr := gax.Sleep(ctx, backoff.Pause()); sleepErr != nil {
			err = &Failure{Table: table, Op: op, Err: sleepErr}
			break
		}
	}
	c.observe(ctx, table, op, time.Since(start), err)
	return env, err
}

func (c *Client) once(ctx context.Context, table, op, method, endpoint string, payload []byte) (envelope, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return envelope{}, &Failure{Table: table, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(projectHeader, c.projectID)
	if c.publicKey != "" {
		req.Header.Set(keyHeader, c.publicKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, &Failure{Table: table, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return envelope{}, &Failure{Table: table, Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return envelope{}, &Failure{Table: table, Op: op, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return envelope{}, &Failure{Table: table, Op: op, Status: resp.StatusCode, Message: "malformed envelope", Err: decodeErr}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return envelope{}, &Failure{Table: table, Op: op, Status: resp.StatusCode, Message: msg}
	}
	return env, nil
}

func decodeList(table string, data json.RawMessage) ([]json.RawMessage, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &Failure{Table: table, Op: "fetch", Message: "data is not a list", Err: err}
	}
	return records, nil
}

func firstSuccess(table, op string, results []RecordResult) (json.RawMessage, error) {
	var failed []string
	for _, result := range results {
		if result.Success {
			return result.Data, nil
		}
		failed = append(failed, result.Message)
	}
	msg := "no record results returned"
	if len(failed) > 0 {
		msg = strings.Join(failed, "; ")
	}
	return nil, &Failure{Table: table, Op: op, Message: msg}
}
