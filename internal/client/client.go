// ABOUTME: HTTP client for the SubMe backend REST API
// ABOUTME: Attaches the bearer token, logs requests, and clears the session on 401

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dangquan18/subme/internal/metrics"
)

// DefaultTimeout is the overall per-request timeout
const DefaultTimeout = 30 * time.Second

const maxResponseBytes = 10 << 20

// TokenSource supplies the bearer token for outgoing requests
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// UnauthorizedFunc runs when the backend answers 401, before the error is
// returned to the caller
type UnauthorizedFunc func(ctx context.Context)

// Client is the API client for the SubMe backend
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc
	limiter        *rate.Limiter
	metrics        metrics.Recorder
	logger         *slog.Logger
	userAgent      string
}

// Option configures a Client
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler sets the 401 hook
func WithUnauthorizedHandler(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
// rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) { c.metrics = r }
}

// WithLogger sets the request logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		metrics:   metrics.Nop{},
		logger:    slog.Default(),
		userAgent: "subme-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestConfig struct {
	query   url.Values
	headers http.Header
	noAuth  bool
}

// RequestOption adjusts a single request
type RequestOption func(*requestConfig)

// Query adds query parameters
func Query(v url.Values) RequestOption {
	return func(rc *requestConfig) {
		for k, vals := range v {
			for _, val := range vals {
				rc.query.Add(k, val)
			}
		}
	}
}

// Header sets a request header
func Header(key, value string) RequestOption {
	return func(rc *requestConfig) { rc.headers.Set(key, value) }
}

// NoAuth suppresses the Authorization header, for login and signup
func NoAuth() RequestOption {
	return func(rc *requestConfig) { rc.noAuth = true }
}

// Get decodes the response of GET path into out
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post sends body as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put sends body as JSON and decodes the response into out
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Patch sends body as JSON and decodes the response into out
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete issues DELETE path and decodes any response body into out
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do performs one request. A nil body sends no payload; a nil out discards
// the response body. 2xx responses decode into out; everything else returns
// *APIError or *NetworkError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	rc := &requestConfig{query: url.Values{}, headers: http.Header{}}
	for _, opt := range opts {
		opt(rc)
	}

	req, err := c.newRequest(ctx, method, path, body, rc)
	if err != nil {
		return err
	}
	requestID := req.Header.Get("X-Request-ID")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			ne := c.handleRequestError(ctx, method, path, err)
			// Wait fails early when the deadline cannot be met
			if !ne.canceled {
				ne.timeout = true
			}
			return ne
		}
	}

	c.logger.Debug("Request started",
		"request_id", requestID,
		"method", method,
		"path", path,
	)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordNetworkFailure(method)
		c.logger.Debug("Request failed",
			"request_id", requestID,
			"method", method,
			"path", path,
			"error", err,
		)
		return c.handleRequestError(ctx, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.RecordNetworkFailure(method)
		return c.handleRequestError(ctx, method, path, err)
	}

	latency := time.Since(start)
	c.metrics.RecordRequest(method, resp.StatusCode, latency)
	c.logger.Debug("Request completed",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", latency.Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(ctx, method, path, resp.StatusCode, data, !rc.noAuth)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid response from backend for %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, rc *requestConfig) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(rc.query) > 0 {
		target += "?" + rc.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !rc.noAuth && c.tokens != nil {
		if tok, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for k, vals := range rc.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// handleRequestError classifies failures where no response arrived
func (c *Client) handleRequestError(ctx context.Context, method, path string, err error) *NetworkError {
	ne := &NetworkError{Method: method, Path: path, BaseURL: c.baseURL, Err: err}

	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		ne.canceled = true
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		ne.timeout = true
	case errors.As(err, &netErr) && netErr.Timeout():
		ne.timeout = true
	}
	return ne
}

// handleErrorResponse parses API error responses and runs the 401 hook.
// A 401 on an unauthenticated request (wrong password at login) carries no
// session to invalidate.
func (c *Client) handleErrorResponse(ctx context.Context, method, path string, status int, body []byte, authed bool) error {
	apiErr := parseErrorBody(method, path, status, body)

	if apiErr.Kind() == KindUnauthorized && authed {
		c.logger.Warn("Backend rejected credentials, clearing session",
			"method", method,
			"path", path,
		)
		if c.onUnauthorized != nil {
			c.onUnauthorized(context.WithoutCancel(ctx))
		}
	}
	return apiErr
}
