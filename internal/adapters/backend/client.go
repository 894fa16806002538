// Package backend is the typed client for the tuition REST API that owns
// students, payments, tuitions and messaging.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"tuition/internal/perf"
)

// Sentinel errors. APIError unwraps to one of them where it applies.
var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrUnavailable  = errors.New("backend: unavailable")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
}

// Unwrap maps 401 to ErrUnauthorized and 5xx to ErrUnavailable.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status >= http.StatusInternalServerError:
		return ErrUnavailable
	}
	return nil
}

// UserMessage returns the text to show the dashboard user for err: the
// backend's own message when there is one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsTransient reports whether a failed write is worth replaying later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

type errorBody struct {
	Message string `json:"message"`
}

// Config holds connection settings.
type Config struct {
	BaseURL           string // without the /api suffix
	Timeout           time.Duration
	RetryCount        int
	RequestsPerSecond int
	Collector         *perf.Collector // optional; receives one entry per call
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	http      *resty.Client
	rl        ratelimit.Limiter
	collector *perf.Collector
}

// New builds a client with retries and a shared request rate limit.
// PRE: cfg.RequestsPerSecond > 0
// POST: Returns a client rooted at <BaseURL>/api
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 20
	}
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/api").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		http:      hc,
		rl:        ratelimit.New(cfg.RequestsPerSecond),
		collector: cfg.Collector,
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Session returns a view of the client that authenticates with token.
func (c *Client) Session(token string) *Session {
	return &Session{c: c, token: token}
}

// Session is a Client bound to one user's bearer token.
type Session struct {
	c     *Client
	token string
}

type call struct {
	method string
	path   string
	query  map[string]string
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, token string, k call) error {
	c.rl.Take()

	req := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if token != "" {
		req.SetAuthToken(token)
	}
	if len(k.query) > 0 {
		req.SetQueryParams(k.query)
	}
	if k.body != nil {
		req.SetBody(k.body)
	}
	if k.out != nil {
		req.SetResult(k.out)
	}

	start := time.Now()
	resp, err := req.Execute(k.method, k.path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	c.observe(k, status, start)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		slog.Warn("backend_request_failed", "method", k.method, "path", k.path, "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, k.method, k.path, err)
	}

	slog.Debug("backend_request", "method", k.method, "path", k.path,
		"status", status, "duration_ms", time.Since(start).Milliseconds())

	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
		if eb, ok := resp.Error().(*errorBody); ok && eb.Message != "" {
			apiErr.Message = eb.Message
		}
		return apiErr
	}
	return nil
}

func (c *Client) observe(k call, status int, start time.Time) {
	if c.collector == nil {
		return
	}
	c.collector.Record(perf.Entry{
		Kind:       perf.KindBackend,
		Label:      k.method + " " + routeLabel(k.path),
		StatusCode: status,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:  start,
	})
}

// routeLabel keeps the first path segment so "/users/a@b.c" and
// "/users/x@y.z" aggregate as "/users".
func routeLabel(path string) string {
	if i := strings.IndexByte(strings.TrimPrefix(path, "/"), '/'); i >= 0 {
		return path[:i+1]
	}
	return path
}

func (s *Session) do(ctx context.Context, k call) error {
	return s.c.do(ctx, s.token, k)
}
