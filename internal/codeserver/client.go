// Package codeserver talks to the pool of sandboxed processes that run and
// grade code submissions.
package codeserver

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
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnavailable wraps transport failures and 5xx replies. Callers may retry.
	ErrUnavailable = errors.New("code server unavailable")
	// ErrBadResponse means the server answered with something that cannot be decoded.
	ErrBadResponse = errors.New("code server returned an unparseable response")
)

const (
	StatusNotStarted = "not started"
	StatusRunning    = "running"
	StatusDone       = "done"
	StatusUnknown    = "unknown"
)

// Client is the two-phase protocol: Dispatch queues work keyed by uid,
// FetchResult reports its progress.
type Client interface {
	Dispatch(ctx context.Context, uid uint, jsonData string, userDir string) error
	FetchResult(ctx context.Context, uid uint) (*Result, error)
}

// Result is the raw status reply. Result carries the serialized outcome once
// Status is done.
type Result struct {
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
}

// Outcome is the decoded Result.Result payload.
type Outcome struct {
	Success bool            `json:"success"`
	Error   json.RawMessage `json:"error"`
	Weight  float64         `json:"weight"`
}

func (r *Result) IsDone() bool {
	return r.Status == StatusDone
}

// Outcome decodes the embedded result of a finished job.
func (r *Result) Outcome() (*Outcome, error) {
	var out Outcome
	if err := json.Unmarshal([]byte(r.Result), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return &out, nil
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *HTTPClient) Dispatch(ctx context.Context, uid uint, jsonData string, userDir string) error {
	form := url.Values{}
	form.Set("uid", strconv.FormatUint(uint64(uid), 10))
	form.Set("json_data", jsonData)
	form.Set("user_dir", userDir)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Code server dispatch failed", "uid", uid, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: dispatch returned %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: dispatch returned %d", ErrBadResponse, resp.StatusCode)
	}

	c.logger.DebugContext(ctx, "Dispatched submission to code server", "uid", uid)
	return nil
}

func (c *HTTPClient) FetchResult(ctx context.Context, uid uint) (*Result, error) {
	endpoint := c.baseURL + "/" + strconv.FormatUint(uint64(uid), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Code server poll failed", "uid", uid, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: poll returned %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodeResult(body)
}

// decodeResult accepts result either as a JSON-encoded string or as an inline object.
func decodeResult(body []byte) (*Result, error) {
	var raw struct {
		Status string          `json:"status"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if raw.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrBadResponse)
	}

	result := &Result{Status: raw.Status}
	trimmed := bytes.TrimSpace(raw.Result)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '"':
		if err := json.Unmarshal(trimmed, &result.Result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
	default:
		result.Result = string(trimmed)
	}
	return result, nil
}
