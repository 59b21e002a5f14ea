package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/json-iterator/go/extra"
	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/metrics"
	"github.com/curatai/curatai/internal/telemetry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Catalog records are not typed consistently across endpoints: ids arrive
// as numbers or quoted strings, and empty objects as [].
func init() {
	extra.RegisterFuzzyDecoders()
}

// TokenHeader is the header the catalog reads the API access token from.
const TokenHeader = "TOKEN"

// HTTPError represents an error response from the server with a status code
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Message)
}

// RequestOptions contains options for making HTTP requests
type RequestOptions struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        []byte
	// Timeout overrides the client timeout for this request when non-zero.
	Timeout time.Duration
}

// HTTPClient represents a client for making HTTP requests to the catalog server
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	metrics    *metrics.Metrics
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying client. Its transport is used as is.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) {
		h.httpClient.Timeout = d
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(h *HTTPClient) {
		h.tokens = ts
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *HTTPClient) {
		h.metrics = m
	}
}

// NewHTTPClient creates a new HTTP client bound to baseURL
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL: %q", baseURL)
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: telemetry.Transport(nil),
			Timeout:   30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = metrics.OrNoop(c.metrics)
	return c, nil
}

// WithTokens returns a copy of c that authenticates with ts.
func (c *HTTPClient) WithTokens(ts TokenSource) *HTTPClient {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// URL resolves p against the base URL, keeping a trailing slash since the
// catalog routes require it.
func (c *HTTPClient) URL(p string, queryParams map[string]string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %v", err)
	}
	joined := path.Join("/", u.Path, p)
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	u.Path = joined

	if len(queryParams) > 0 {
		q := u.Query()
		for k, v := range queryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// DoRequest makes an HTTP request with the given options
func (c *HTTPClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error) {
	target, err := c.URL(opts.Path, opts.QueryParams)
	if err != nil {
		return nil, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set(TokenHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.CatalogLatency.WithLabelValues(opts.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues(opts.Method, "error").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.CatalogRequests.WithLabelValues(opts.Method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	log.Ctx(ctx).Debug().
		Str("method", opts.Method).
		Str("path", opts.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("catalog request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	return respBody, nil
}

// GetResource retrieves the resource at path
func (c *HTTPClient) GetResource(ctx context.Context, path string, queryParams map[string]string) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{
		Method:      http.MethodGet,
		Path:        path,
		QueryParams: queryParams,
	})
}

// CreateResource posts data to path
func (c *HTTPClient) CreateResource(ctx context.Context, path string, data []byte) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{
		Method: http.MethodPost,
		Path:   path,
		Body:   data,
	})
}

// GetJSON retrieves path and decodes the response into out.
func GetJSON(ctx context.Context, r Requester, path string, queryParams map[string]string, out any) error {
	body, err := r.GetResource(ctx, path, queryParams)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PostJSON marshals in, posts it to path and returns the raw response.
func PostJSON(ctx context.Context, r Requester, path string, in any) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return r.CreateResource(ctx, path, data)
}
