package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxBodyBytes bounds how much of an upstream body is buffered for relaying.
const maxBodyBytes = 32 << 20

// ErrBodyTooLarge is returned when an upstream body does not fit in the
// relay buffer. Such a body is never passed on truncated.
var ErrBodyTooLarge = errors.New("upstream body too large")

// ForecastClient performs the outbound GETs against the forecasting API.
type ForecastClient struct {
	BaseURL string
	// Token is sent as a bearer token when non-empty.
	Token  string
	Client *http.Client
	// Cache, when non-nil, serves repeated 2xx responses until they go stale.
	Cache *ResponseCache
	// MaxBodyBytes caps a buffered upstream body. Zero means 32 MiB.
	MaxBodyBytes int64

	logger *zap.Logger
}

// NewForecastClient creates a new forecasting API client.
// If baseURL is empty, defaults to "http://localhost:9002".
func NewForecastClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *ForecastClient {
	if baseURL == "" {
		baseURL = "http://localhost:9002"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("upstream"),
	}
}

// Response is an upstream reply captured verbatim.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Cached      bool
}

// OK reports whether the status is in [200,300).
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns an *UpstreamError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &UpstreamError{StatusCode: r.StatusCode, Body: r.Body}
}

// UpstreamError represents a non-2xx reply from the forecasting API.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API server returned status %d", e.StatusCode)
}

// URL builds the absolute upstream URL for path and query. An empty baseURL
// falls back to the client's BaseURL.
func (c *ForecastClient) URL(baseURL, path string, query url.Values) (string, error) {
	if baseURL == "" {
		baseURL = c.BaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid upstream URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// Fetch performs a single GET and returns the upstream status and body as-is.
// Only transport-level failures (bad URL, network, body read, oversized body)
// are returned as errors; non-2xx replies come back as a Response.
func (c *ForecastClient) Fetch(ctx context.Context, baseURL, path string, query url.Values) (*Response, error) {
	return c.fetch(ctx, baseURL, path, query, true)
}

// FetchFresh is Fetch without the cache lookup. A successful reply still
// refreshes the cache.
func (c *ForecastClient) FetchFresh(ctx context.Context, baseURL, path string, query url.Values) (*Response, error) {
	return c.fetch(ctx, baseURL, path, query, false)
}

func (c *ForecastClient) fetch(ctx context.Context, baseURL, path string, query url.Values, useCache bool) (*Response, error) {
	target, err := c.URL(baseURL, path, query)
	if err != nil {
		return nil, err
	}

	cacheKey := GenerateCacheKey(target)
	if useCache {
		if cached, found := c.Cache.Get(cacheKey); found {
			c.logger.Debug("cache hit", zap.String("url", target), zap.Int("bytes", len(cached.Body)))
			hit := *cached
			hit.Cached = true
			return &hit, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	c.logger.Info("request", zap.String("method", req.Method), zap.String("url", target))

	start := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Warn("request failed", zap.String("url", target), zap.Duration("duration", duration), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = maxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		c.logger.Warn("reading body failed", zap.String("url", target), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > limit {
		c.logger.Warn("body too large", zap.String("url", target), zap.Int64("limit", limit))
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, limit)
	}

	out := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}

	fields := []zap.Field{
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
		zap.Int("bytes", len(body)),
	}
	if out.OK() {
		c.logger.Info("response", fields...)
		c.Cache.Set(cacheKey, out)
	} else {
		c.logger.Warn("non-2xx response", fields...)
	}
	return out, nil
}
