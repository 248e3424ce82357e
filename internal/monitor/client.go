package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	httpserver "github.com/fyrsmithlabs/sitegen/internal/http"
	"github.com/fyrsmithlabs/sitegen/internal/jobs"
)

// Client talks to a sitegen server.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	dialer  *websocket.Dialer
}

// APIError is a non-2xx response. Message is the server's error detail.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a client for baseURL. An empty token sends no
// Authorization header.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		dialer: websocket.DefaultDialer,
	}
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (httpserver.HealthResponse, error) {
	var out httpserver.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Generate submits a generation request and returns the queued job.
func (c *Client) Generate(ctx context.Context, req httpserver.GenerateRequest) (httpserver.GenerateResponse, error) {
	var out httpserver.GenerateResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/sites/generate", req, &out)
	return out, err
}

// Job fetches a single job including its result.
func (c *Client) Job(ctx context.Context, id string) (jobs.Job, error) {
	var out jobs.Job
	err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Jobs lists job summaries.
func (c *Client) Jobs(ctx context.Context) (httpserver.JobListResponse, error) {
	var out httpserver.JobListResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/jobs", nil, &out)
	return out, err
}

// DeleteJob removes a job from the server.
func (c *Client) DeleteJob(ctx context.Context, id string) (httpserver.MessageResponse, error) {
	var out httpserver.MessageResponse
	err := c.do(ctx, http.MethodDelete, "/api/v1/jobs/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Wait polls a job until it is terminal.
func (c *Client) Wait(ctx context.Context, id string, interval time.Duration, fn func(jobs.Job)) (jobs.Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return jobs.Job{}, err
		}
		if fn != nil {
			fn(job)
		}
		if job.Status.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Watch streams job snapshots over the websocket endpoint and calls fn for
// each. It returns the last snapshot and the close reason sent by the server.
func (c *Client) Watch(ctx context.Context, id string, fn func(jobs.Job)) (jobs.Job, string, error) {
	wsURL, err := c.streamURL(id)
	if err != nil {
		return jobs.Job{}, "", err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return jobs.Job{}, "", decodeError(resp)
		}
		return jobs.Job{}, "", fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	var last jobs.Job
	for {
		var job jobs.Job
		if err := conn.ReadJSON(&job); err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure {
				return last, ce.Text, nil
			}
			if ctx.Err() != nil {
				return last, "", ctx.Err()
			}
			return last, "", fmt.Errorf("read job stream: %w", err)
		}
		last = job
		if fn != nil {
			fn(job)
		}
	}
}

func (c *Client) streamURL(id string) (string, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/jobs/" + url.PathEscape(id) + "/ws")
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response into an APIError, using echo's
// {"message": ...} body when present.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
