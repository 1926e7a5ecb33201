// Package llm turns selected items into structured summaries using a chat
// model, a JSON summarization service, or a deterministic fallback.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"SignalsDigest/internal/domain"
)

const (
	defaultExcerptChars = 2200
	fallbackExcerpt     = 420

	noteMissingSection  = "LLM missing section marker; fallback used"
	noteMissingHeadline = "LLM missing headline; title used"
	noteMissingSummary  = "LLM missing summary; excerpt used"
	noteFallback        = "Automated fallback summary (LLM unavailable)"
	noteStrippedURLs    = "LLM cited URLs outside the item; removed"
	noteMissingWhy      = "LLM missing why it matters; placeholder used"
	noteMissingSignals  = "LLM missing signals to watch; placeholder used"

	placeholderWhy    = "Not assessed; automated summary."
	placeholderSignal = "Follow-up coverage from the same source"
)

const userInstructions = `Summarize the item below as a single JSON object with exactly these keys:
{
  "headline": "short factual headline",
  "section": "the section name given below",
  "published": "YYYY-MM-DD or empty when undated",
  "summary": "2-3 sentences strictly grounded in the excerpt",
  "why_it_matters": "1 sentence grounded in the excerpt",
  "signals_to_watch": ["1-3 brief forward-looking signals"],
  "sources": ["the item URL"]
}
Output JSON only.`

var urlPattern = regexp.MustCompile(`https?://[^\s)\]}<>"']+`)

// rawSummary mirrors the JSON object the model is asked to return.
type rawSummary struct {
	Headline       string   `json:"headline"`
	Section        string   `json:"section"`
	Published      string   `json:"published"`
	Summary        string   `json:"summary"`
	WhyItMatters   string   `json:"why_it_matters"`
	SignalsToWatch []string `json:"signals_to_watch"`
	Sources        []string `json:"sources"`
}

func buildUserPrompt(item domain.Item, excerptChars int) string {
	if excerptChars <= 0 {
		excerptChars = defaultExcerptChars
	}
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = "(untitled)"
	}

	var sb strings.Builder
	sb.WriteString(userInstructions)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Section: %s\n", item.Section)
	fmt.Fprintf(&sb, "Title: %s\n", title)
	fmt.Fprintf(&sb, "URL: %s\n", item.URL)
	fmt.Fprintf(&sb, "Published: %s (confidence=%s, source=%s)\n", item.PublishedDay(), item.DateConfidence, item.DateSource)
	fmt.Fprintf(&sb, "Excerpt:\n%s\n", shorten(item.RawText(), excerptChars))
	return sb.String()
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRightFunc(string(r[:n-1]), func(c rune) bool { return c == ' ' || c == '\n' || c == '\t' }) + "…"
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// decodeSummary parses a model reply and validates it against item.
func decodeSummary(content string, item domain.Item) (domain.SummarizedItem, error) {
	cleaned := cleanJSONResponse(content)

	var raw rawSummary
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return domain.SummarizedItem{}, fmt.Errorf("decode summary: %w, content: %s", err, shorten(cleaned, 200))
	}
	return finalize(raw, item), nil
}

// finalize fills gaps from the item and records a note for each repair.
func finalize(raw rawSummary, item domain.Item) domain.SummarizedItem {
	out := domain.SummarizedItem{
		Headline:     strings.TrimSpace(raw.Headline),
		Section:      strings.TrimSpace(raw.Section),
		Published:    strings.TrimSpace(raw.Published),
		Summary:      strings.TrimSpace(raw.Summary),
		WhyItMatters: strings.TrimSpace(raw.WhyItMatters),
	}

	if out.Section == "" {
		out.Section = item.Section
		out.Notes = append(out.Notes, noteMissingSection)
	}
	if out.Headline == "" {
		out.Headline = titleOf(item)
		out.Notes = append(out.Notes, noteMissingHeadline)
	}
	if out.Summary == "" {
		out.Summary = shorten(item.RawText(), fallbackExcerpt)
		out.Notes = append(out.Notes, noteMissingSummary)
	}
	if out.Published == "" {
		out.Published = item.PublishedDay()
	}

	for _, s := range raw.SignalsToWatch {
		if s = strings.TrimSpace(s); s != "" {
			out.SignalsToWatch = append(out.SignalsToWatch, s)
		}
	}

	stripped := false
	out.Sources = []string{item.URL}
	for _, src := range raw.Sources {
		src = strings.TrimSpace(src)
		if src == "" || src == item.URL {
			continue
		}
		stripped = true
	}
	for _, field := range []*string{&out.Summary, &out.WhyItMatters, &out.Headline} {
		cleaned, removed := stripUnknownURLs(*field, item.URL)
		*field = cleaned
		stripped = stripped || removed
	}
	if stripped {
		out.Notes = append(out.Notes, noteStrippedURLs)
	}

	if out.WhyItMatters == "" {
		out.WhyItMatters = placeholderWhy
		out.Notes = append(out.Notes, noteMissingWhy)
	}
	if len(out.SignalsToWatch) == 0 {
		out.SignalsToWatch = []string{placeholderSignal}
		out.Notes = append(out.Notes, noteMissingSignals)
	}

	return out
}

// stripUnknownURLs removes every URL in text other than allowed.
func stripUnknownURLs(text, allowed string) (string, bool) {
	removed := false
	cleaned := urlPattern.ReplaceAllStringFunc(text, func(m string) string {
		u := strings.TrimRight(m, ".,;:)]}>")
		if u == allowed {
			return m
		}
		removed = true
		return m[len(u):]
	})
	if !removed {
		return text, false
	}
	return strings.Join(strings.Fields(cleaned), " "), true
}

func titleOf(item domain.Item) string {
	if t := strings.TrimSpace(item.Title); t != "" {
		return t
	}
	return "(untitled)"
}
