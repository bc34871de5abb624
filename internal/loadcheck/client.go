package loadcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Response is the decoded reply of one counter request.
type Response struct {
	Status int
	Value  int64 // valid for 200/201 responses
	Body   map[string]any
}

// Client issues counter requests against one service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Create sends POST /counters/{name}.
func (c *Client) Create(ctx context.Context, name string) (Response, error) {
	return c.do(ctx, http.MethodPost, name)
}

// Increment sends PUT /counters/{name}.
func (c *Client) Increment(ctx context.Context, name string) (Response, error) {
	return c.do(ctx, http.MethodPut, name)
}

// Read sends GET /counters/{name}.
func (c *Client) Read(ctx context.Context, name string) (Response, error) {
	return c.do(ctx, http.MethodGet, name)
}

// Delete sends DELETE /counters/{name}.
func (c *Client) Delete(ctx context.Context, name string) (Response, error) {
	return c.do(ctx, http.MethodDelete, name)
}

// Health sends GET /healthz and returns the status code.
func (c *Client) Health(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, name string) (Response, error) {
	target := c.baseURL + "/counters/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response body: %w", err)
	}

	out := Response{Status: resp.StatusCode}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out.Body); err != nil {
		return out, fmt.Errorf("failed to decode response body: %w", err)
	}
	if v, ok := out.Body[name].(float64); ok {
		out.Value = int64(v)
	}
	return out, nil
}
