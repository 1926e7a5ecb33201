package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 25 * time.Second
	defaultMaxBytes  = 6 << 20
	defaultBaseDelay = 600 * time.Millisecond
	maxDelay         = 20 * time.Second
)

// Options tunes the shared fetch client.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	MaxBytes          int64
	MaxRetries        int
	RequestsPerSecond float64
	BaseDelay         time.Duration
	Logger            *slog.Logger
}

// Response is a fully read, size-capped HTTP response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// StatusError is returned by GetOK for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Client is a polite HTTP getter: per-host rate limit, bounded body size,
// and retries with exponential backoff on 429/5xx and transport errors.
type Client struct {
	http   *http.Client
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient wires an HTTP client; nil gets a client with opts.Timeout.
func NewClient(client *http.Client, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		http:     client,
		opts:     opts,
		logger:   logger,
		limiters: map[string]*rate.Limiter{},
	}
}

// Get fetches rawURL. Non-2xx responses are returned, not treated as errors,
// since some sites send useful bodies with 403/404.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	if rawURL == "" {
		return nil, errors.New("empty url")
	}

	var (
		resp    *Response
		lastErr error
	)
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, fmt.Errorf("get %s: %w", rawURL, err)
			}
			c.logger.Debug("retry fetch", "url", rawURL, "attempt", attempt, "error", lastErr)
		}

		resp, lastErr = c.do(ctx, rawURL)
		if lastErr != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("get %s: %w", rawURL, ctx.Err())
			}
			continue
		}
		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		lastErr = &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if resp != nil {
		return resp, nil
	}
	return nil, fmt.Errorf("get %s: %w", rawURL, lastErr)
}

// GetOK is Get that turns non-2xx statuses into *StatusError.
func (c *Client) GetOK(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, rawURL string) (*Response, error) {
	if err := c.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9,fr;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", rawURL, err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		URL:         finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Header:      resp.Header,
		Body:        body,
	}, nil
}

func (c *Client) wait(ctx context.Context, rawURL string) error {
	if c.opts.RequestsPerSecond <= 0 {
		return nil
	}
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	c.mu.Lock()
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.opts.RequestsPerSecond), 1)
		c.limiters[host] = limiter
	}
	c.mu.Unlock()

	return limiter.Wait(ctx)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.BaseDelay << (attempt - 1)
	if d > maxDelay || d <= 0 {
		return maxDelay
	}
	return d
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func mediaType(header string) string {
	mt, _, _ := strings.Cut(header, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
