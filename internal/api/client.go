// Package api is the transport facade over the detax HTTP API.
//
// One Client is shared by every panel. It never retries and sets no
// timeout of its own: callers bound requests through their context.
// Any non-2xx response is returned as a *StatusError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/detax-ai/detax/internal/log"
	"github.com/detax-ai/detax/internal/tracing"
)

// Observer receives one call per completed request. status is 0 when the
// request failed before a response arrived.
type Observer interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Config locates the API.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8005.
	BaseURL string
	// Prefix is the versioned path, e.g. /api/v1.
	Prefix string
}

// Validate checks the base URL.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	return nil
}

// Client is the shared RemoteClient.
type Client struct {
	root     string // server root, /health lives here
	endpoint string // root + prefix
	http     *http.Client
	tracer   trace.Tracer
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTracer wraps every request in a client span.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithObserver reports every request to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New builds a Client after validating cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root := strings.TrimRight(cfg.BaseURL, "/")
	prefix := strings.Trim(cfg.Prefix, "/")
	endpoint := root
	if prefix != "" {
		endpoint = root + "/" + prefix
	}

	c := &Client{
		root:     root,
		endpoint: endpoint,
		http:     &http.Client{},
		tracer:   noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the versioned API root.
func (c *Client) Endpoint() string { return c.endpoint }

// Get issues GET {endpoint}{path} and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, c.endpoint+path, path, nil, out)
}

// Post issues POST {endpoint}{path} with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, c.endpoint+path, path, body, out)
}

// Delete issues DELETE {endpoint}{path}.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, c.endpoint+path, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, rawURL, path string, body, out any) (err error) {
	route := Route(path)
	start := time.Now()
	status := 0

	ctx, span := tracing.StartRequest(ctx, c.tracer, method, route)
	defer func() {
		tracing.EndRequest(span, status, err)
		if c.observer != nil {
			c.observer.ObserveRequest(method, route, status, time.Since(start))
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.ErrorErr(log.CatAPI, "Request failed", err, "method", method, "path", path)
		}
	}()

	var reader io.Reader
	if body != nil {
		data, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, marshalErr)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug(log.CatAPI, "Request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if status < 200 || status > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: status,
			Detail:     detailOf(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// Route strips the query and replaces numeric path segments with {id},
// giving a bounded label for metrics and span names.
func Route(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/{id}$1")
	}
	return path
}
