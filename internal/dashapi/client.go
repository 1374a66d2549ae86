package dashapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/speedwagon-io/plantdash/internal/model"
)

// StatusError is a completed request with a non-2xx status.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.Code, e.Path)
}

// DecodeError is a 2xx response whose body is not the expected JSON.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Kind classifies a request error for logs and metrics.
func Kind(err error) string {
	var statusErr *StatusError
	var decodeErr *DecodeError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &statusErr):
		return model.ErrorKindStatus
	case errors.As(err, &decodeErr):
		return model.ErrorKindDecode
	default:
		return model.ErrorKindTransport
	}
}

type Client struct {
	log     *slog.Logger
	baseURL string
	cookie  string
	client  *http.Client
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration, cookie string) *Client {
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		cookie:  cookie,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Name() string {
	return "dashboard_api"
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// GetText fetches a markup fragment.
func (c *Client) GetText(ctx context.Context, path string, query url.Values) (string, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetJSON fetches path and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Path: path, Err: err}
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("dashboard api response",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Path: path, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// Health reports whether the dashboard backend answers at all. Any status
// below 500 counts as reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}

	return nil
}
