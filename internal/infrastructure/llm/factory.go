package llm

import (
	"log/slog"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/ports"
)

// New picks the summarizer for cfg.Provider. A hosted model without an API
// key degrades to the extractive fallback.
func New(cfg config.SummarizerConfig, logger *slog.Logger) ports.Summarizer {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			warnFallback(logger, cfg.Provider)
			return Fallback{}
		}
		return NewOpenAIClient(cfg, logger)
	case config.ProviderAnthropic:
		if cfg.APIKey == "" {
			warnFallback(logger, cfg.Provider)
			return Fallback{}
		}
		return NewAnthropicClient(cfg, logger)
	case config.ProviderService:
		return NewServiceClient(cfg, nil)
	default:
		return Fallback{}
	}
}

func warnFallback(logger *slog.Logger, provider string) {
	if logger != nil {
		logger.Warn("no API key, using extractive summaries", "provider", provider)
	}
}
