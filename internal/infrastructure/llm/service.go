package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
)

// ServiceClient talks to an external summarization service over JSON.
type ServiceClient struct {
	endpoint     string
	apiKey       string
	excerptChars int
	http         *http.Client
}

var _ ports.Summarizer = (*ServiceClient)(nil)

// NewServiceClient creates a reusable HTTP client; a nil httpClient gets one
// bounded by the configured timeout.
func NewServiceClient(cfg config.SummarizerConfig, httpClient *http.Client) *ServiceClient {
	if httpClient == nil {
		timeout := cfg.Timeout()
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &ServiceClient{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		excerptChars: cfg.ExcerptChars,
		http:         httpClient,
	}
}

// Summarize posts the item to /summarize and validates the reply.
func (c *ServiceClient) Summarize(ctx context.Context, item domain.Item) (domain.SummarizedItem, error) {
	excerptChars := c.excerptChars
	if excerptChars <= 0 {
		excerptChars = defaultExcerptChars
	}
	payload := map[string]any{
		"title":     item.Title,
		"url":       item.URL,
		"section":   item.Section,
		"published": item.PublishedDay(),
		"content":   shorten(item.RawText(), excerptChars),
	}

	var raw rawSummary
	if err := c.post(ctx, "/summarize", payload, &raw); err != nil {
		return domain.SummarizedItem{}, err
	}
	return finalize(raw, item), nil
}

func (c *ServiceClient) post(ctx context.Context, path string, payload any, v any) error {
	if c.endpoint == "" {
		return fmt.Errorf("summarization service endpoint not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
