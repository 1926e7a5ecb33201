package llm

import (
	"context"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
)

// Fallback summarizes without a model: the title becomes the headline and a
// shortened excerpt the summary.
type Fallback struct{}

var _ ports.Summarizer = Fallback{}

// Summarize never fails.
func (Fallback) Summarize(ctx context.Context, item domain.Item) (domain.SummarizedItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.SummarizedItem{}, err
	}

	summary := shorten(item.RawText(), fallbackExcerpt)
	if summary == "" {
		summary = "No excerpt available."
	}
	return domain.SummarizedItem{
		Headline:       titleOf(item),
		Section:        item.Section,
		Published:      item.PublishedDay(),
		Summary:        summary,
		WhyItMatters:   placeholderWhy,
		SignalsToWatch: []string{placeholderSignal},
		Sources:        []string{item.URL},
		Notes:          []string{noteFallback},
	}, nil
}
