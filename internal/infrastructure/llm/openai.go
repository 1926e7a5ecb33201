package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
)

// OpenAIClient summarizes through the chat completions API of OpenAI or any
// compatible endpoint.
type OpenAIClient struct {
	client       *openai.Client
	model        openai.ChatModel
	temperature  float64
	maxTokens    int64
	systemPrompt string
	excerptChars int
	logger       *slog.Logger
}

var _ ports.Summarizer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.SummarizerConfig, logger *slog.Logger) *OpenAIClient {
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

	client := openai.NewClient(opts...)
	model := openai.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAIClient{
		client:       &client,
		model:        model,
		temperature:  cfg.Temperature,
		maxTokens:    int64(cfg.MaxTokens),
		systemPrompt: cfg.SystemPrompt,
		excerptChars: cfg.ExcerptChars,
		logger:       logger,
	}
}

// Summarize asks the model for a JSON summary of item.
func (c *OpenAIClient) Summarize(ctx context.Context, item domain.Item) (domain.SummarizedItem, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(safePrompt(c.systemPrompt)),
			openai.UserMessage(buildUserPrompt(item, c.excerptChars)),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.SummarizedItem{}, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.SummarizedItem{}, fmt.Errorf("no response from openai")
	}

	if c.logger != nil {
		c.logger.Debug("openai summary", "url", item.URL, "tokens", resp.Usage.TotalTokens)
	}
	return decodeSummary(resp.Choices[0].Message.Content, item)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a careful analyst. Use only the provided excerpt and answer in JSON."
	}
	return prompt
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
