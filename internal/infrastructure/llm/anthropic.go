package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicClient summarizes through the Messages API.
type AnthropicClient struct {
	client       *anthropic.Client
	model        anthropic.Model
	temperature  float64
	maxTokens    int64
	systemPrompt string
	excerptChars int
	logger       *slog.Logger
}

var _ ports.Summarizer = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration. Endpoint overrides
// the API base URL when set.
func NewAnthropicClient(cfg config.SummarizerConfig, logger *slog.Logger) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(withTrailingSlash(cfg.Endpoint)))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout()))
	}

	client := anthropic.NewClient(opts...)
	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = anthropic.Model("claude-haiku-4-5")
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicClient{
		client:       &client,
		model:        model,
		temperature:  cfg.Temperature,
		maxTokens:    maxTokens,
		systemPrompt: cfg.SystemPrompt,
		excerptChars: cfg.ExcerptChars,
		logger:       logger,
	}
}

// Summarize asks the model for a JSON summary of item.
func (c *AnthropicClient) Summarize(ctx context.Context, item domain.Item) (domain.SummarizedItem, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		System: []anthropic.TextBlockParam{
			{Text: safePrompt(c.systemPrompt)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(item, c.excerptChars))),
		},
	})
	if err != nil {
		return domain.SummarizedItem{}, fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return domain.SummarizedItem{}, fmt.Errorf("no response from anthropic")
	}

	if c.logger != nil {
		c.logger.Debug("anthropic summary", "url", item.URL, "output_tokens", resp.Usage.OutputTokens)
	}
	return decodeSummary(resp.Content[0].Text, item)
}
