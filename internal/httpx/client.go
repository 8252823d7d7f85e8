package httpx

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
	"strings"
	"time"
)

// RetryPolicy controls the retry behaviour for transient failures.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     float64
	RetryIf    func(resp *http.Response, err error) bool
}

// DefaultRetryPolicy implements a conservative retry strategy.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 2,
	BaseDelay:  250 * time.Millisecond,
	MaxDelay:   2 * time.Second,
	Jitter:     0.25,
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTransport swaps the round tripper of the underlying HTTP client.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt == nil {
			return
		}
		clone := *c.httpClient
		clone.Transport = rt
		c.httpClient = &clone
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithRetryPolicy overrides the default retry configuration.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retryPolicy = policy
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client posts requests to one endpoint URL, retrying transient failures.
type Client struct {
	endpoint    *url.URL
	httpClient  *http.Client
	headers     http.Header
	retryPolicy RetryPolicy
	logger      *slog.Logger
}

// Request describes a single outbound request. An empty Method means POST and
// an empty Path targets the endpoint itself.
type Request struct {
	Method       string
	Path         string
	Query        url.Values
	Header       http.Header
	Body         []byte
	DisableRetry bool
}

// NewClient creates a Client for the provided endpoint URL.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("httpx: endpoint URL is required")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid endpoint URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("httpx: unsupported endpoint scheme %q", parsed.Scheme)
	}

	c := &Client{
		endpoint: parsed,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		headers:     make(http.Header),
		retryPolicy: DefaultRetryPolicy,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.retryPolicy.MaxRetries < 0 {
		c.retryPolicy.MaxRetries = 0
	}
	if c.retryPolicy.BaseDelay <= 0 {
		c.retryPolicy.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if c.retryPolicy.MaxDelay <= 0 {
		c.retryPolicy.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	return c, nil
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint.String() }

// Do executes the provided request and returns the response, or an HTTPError
// for status codes >= 400.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	fullURL, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	attempt := 0
	backoff := NewBackoff(c.retryPolicy.BaseDelay, c.retryPolicy.MaxDelay, c.retryPolicy.Jitter)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader(req.Body))
		if err != nil {
			return nil, err
		}
		httpReq.Header = cloneHeader(c.headers)
		for k, values := range req.Header {
			for _, v := range values {
				httpReq.Header.Add(k, v)
			}
		}

		resp, err := c.httpClient.Do(httpReq)
		if err == nil && resp.StatusCode >= 400 {
			err = c.handleError(resp)
		}
		if err == nil {
			return resp, nil
		}
		if !c.shouldRetry(req, attempt, resp, err) {
			return nil, err
		}

		delay := backoff.ForAttempt(attempt)
		attempt++
		c.logger.Debug("retrying request", "url", fullURL, "attempt", attempt, "delay", delay, "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// PostJSON encodes payload, posts it to the endpoint and returns the drained
// response body.
func (c *Client) PostJSON(ctx context.Context, payload any, disableRetry bool) ([]byte, error) {
	body, err := MarshalJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("httpx: encode payload: %w", err)
	}
	resp, err := c.Do(ctx, &Request{
		Header:       http.Header{"Content-Type": []string{"application/json"}},
		Body:         body,
		DisableRetry: disableRetry,
	})
	if err != nil {
		return nil, err
	}
	return ReadAllAndClose(resp.Body)
}

func bodyReader(body []byte) io.Reader {
	if body == nil {
		return http.NoBody
	}
	return bytes.NewReader(body)
}

func (c *Client) shouldRetry(req *Request, attempt int, resp *http.Response, err error) bool {
	if req.DisableRetry {
		return false
	}
	if attempt >= c.retryPolicy.MaxRetries {
		return false
	}
	if c.retryPolicy.RetryIf != nil {
		return c.retryPolicy.RetryIf(resp, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func (c *Client) buildURL(path string, q url.Values) (string, error) {
	if path == "" && len(q) == 0 {
		return c.endpoint.String(), nil
	}
	full := *c.endpoint
	if path != "" {
		ref, err := url.Parse(path)
		if err != nil {
			return "", err
		}
		full = *c.endpoint.ResolveReference(ref)
	}
	if len(q) > 0 {
		full.RawQuery = q.Encode()
	}
	return full.String(), nil
}

func (c *Client) handleError(resp *http.Response) error {
	defer closeBody(resp.Body)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpx: read error body: %w", err)
	}
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header.Clone(),
	}
	if isJSON(resp.Header.Get("Content-Type")) {
		httpErr.JSON = decodeJSONBody(body)
	}
	return httpErr
}

// ReadAllAndClose drains the reader and ensures it is closed.
func ReadAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer closeBody(rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// MarshalJSON encodes v without HTML escaping and without a trailing newline.
func MarshalJSON(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType) == "application/json"
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}
