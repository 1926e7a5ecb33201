package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/infrastructure/web"
	"SignalsDigest/internal/links"
	"SignalsDigest/internal/scanner"
)

const (
	defaultResolveBudget = 75
	minBlockCandidates   = 20
	minFallbackTitle     = 6
	maxBlocks            = 600
	maxFallbackLinks     = 3500

	// OptionSelector replaces the default article/class-hint block match.
	OptionSelector = "selector"
	// OptionResolveBudget overrides the per-index date resolve budget.
	OptionResolveBudget = "resolve_budget"
)

var blockClassHints = []string{"news", "media", "post", "article", "release", "update"}

// candidate is a link found on an index page with an optional date hint.
type candidate struct {
	url    string
	title  string
	hinted time.Time
}

// HTMLScanner scrapes news index pages and resolves missing dates by
// fetching a bounded number of candidate pages.
type HTMLScanner struct {
	client        *web.Client
	resolveBudget int
	logger        *slog.Logger
}

// NewHTMLScanner wires the shared fetch client; resolveBudget defaults to 75.
func NewHTMLScanner(client *web.Client, resolveBudget int, logger *slog.Logger) *HTMLScanner {
	if resolveBudget <= 0 {
		resolveBudget = defaultResolveBudget
	}
	return &HTMLScanner{client: client, resolveBudget: resolveBudget, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *HTMLScanner) Name() string {
	return "html"
}

// Scan fetches the index page and returns dated candidates where possible.
func (s *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Item, error) {
	indexURL := links.Normalise(req.URL, "")
	if indexURL == "" {
		return nil, fmt.Errorf("invalid index url %q", req.URL)
	}
	source := firstNonEmpty(req.SourceName, indexURL)

	resp, err := s.client.GetOK(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	if links.LooksLikePDF(indexURL, resp.ContentType) {
		title := links.Tail(indexURL)
		if title == "" {
			title = indexURL
		}
		return []domain.Item{{
			URL: indexURL, Title: title, Section: req.Section, Source: source, IndexURL: indexURL,
		}}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	budget := s.budgetFor(req)
	initial := budget
	var items []domain.Item
	for _, c := range extractCandidates(doc, indexURL, req.Option(OptionSelector, "")) {
		if links.IsHub(c.url) {
			continue
		}

		item := domain.Item{
			URL:      c.url,
			Title:    c.title,
			Section:  req.Section,
			Source:   source,
			IndexURL: indexURL,
		}

		if !c.hinted.IsZero() {
			item.SetPublished(c.hinted, "url_or_index_hint", domain.ConfidenceMedium)
			items = append(items, item)
			continue
		}

		if budget > 0 && ctx.Err() == nil {
			budget--
			s.resolveDate(ctx, &item)
		}
		items = append(items, item)
	}

	s.debug("html index scanned", "index", indexURL, "items", len(items), "resolved", initial-budget)
	return items, nil
}

func (s *HTMLScanner) budgetFor(req scanner.Request) int {
	raw := req.Option(OptionResolveBudget, "")
	if raw == "" {
		return s.resolveBudget
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		s.debug("ignoring invalid resolve budget", "source", req.SourceName, "value", raw)
		return s.resolveBudget
	}
	return n
}

// resolveDate fetches the candidate page and records its publication date.
func (s *HTMLScanner) resolveDate(ctx context.Context, item *domain.Item) {
	resp, err := s.client.GetOK(ctx, item.URL)
	if err != nil {
		s.debug("date resolve failed", "url", item.URL, "error", err)
		return
	}

	if links.LooksLikePDF(item.URL, resp.ContentType) {
		if t, ok := ParseDate(resp.Header.Get("Last-Modified")); ok {
			item.SetPublished(t, "header:last-modified", domain.ConfidenceLow)
		}
		return
	}

	if pd, ok := ExtractPublished(resp.Body); ok {
		item.SetPublished(pd.Time, pd.Source, pd.Confidence)
	}
}

// extractCandidates prefers article-like blocks and falls back to every
// titled link in main/body when blocks yield too few candidates. A non-empty
// blockSelector takes every matching block and only falls back when it
// matches nothing.
func extractCandidates(doc *goquery.Document, indexURL, blockSelector string) []candidate {
	var out []candidate

	custom := strings.TrimSpace(blockSelector) != ""
	blocks := "article, section, div"
	if custom {
		blocks = blockSelector
	}

	doc.Find(blocks).EachWithBreak(func(i int, block *goquery.Selection) bool {
		if i >= maxBlocks {
			return false
		}
		if !custom && goquery.NodeName(block) != "article" && !hasBlockClass(block) {
			return true
		}

		a := block.Find("a[href]").First()
		href := links.Normalise(a.AttrOr("href", ""), indexURL)
		if href == "" || href == indexURL {
			return true
		}

		title := squash(a.Text())
		if title == "" {
			title = squash(block.Find("h1, h2, h3, h4").First().Text())
		}

		c := candidate{url: href, title: title}
		if tm := block.Find("time").First(); tm.Length() > 0 {
			if t, ok := ParseDate(firstNonEmpty(tm.AttrOr("datetime", ""), tm.Text())); ok {
				c.hinted = t
			}
		}
		if c.hinted.IsZero() {
			c.hinted = urlDate(href)
		}
		out = append(out, c)
		return true
	})

	if (custom && len(out) == 0) || (!custom && len(out) < minBlockCandidates) {
		scope := doc.Find("main").First()
		if scope.Length() == 0 {
			scope = doc.Find("body").First()
		}
		scope.Find("a[href]").EachWithBreak(func(i int, a *goquery.Selection) bool {
			if i >= maxFallbackLinks {
				return false
			}
			href := links.Normalise(a.AttrOr("href", ""), indexURL)
			if href == "" || href == indexURL {
				return true
			}
			title := squash(a.Text())
			if len(title) < minFallbackTitle {
				return true
			}
			out = append(out, candidate{url: href, title: title, hinted: urlDate(href)})
			return true
		})
	}

	return uniqueCandidates(out)
}

func uniqueCandidates(in []candidate) []candidate {
	seen := make(map[string]struct{}, len(in))
	out := make([]candidate, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c.url]; ok {
			continue
		}
		seen[c.url] = struct{}{}
		out = append(out, c)
	}
	return out
}

func hasBlockClass(s *goquery.Selection) bool {
	cls := strings.ToLower(s.AttrOr("class", ""))
	if cls == "" {
		return false
	}
	for _, hint := range blockClassHints {
		if strings.Contains(cls, hint) {
			return true
		}
	}
	return false
}

func urlDate(raw string) time.Time {
	if t, ok := links.DateFromURL(raw); ok && plausible(t) {
		return t
	}
	return time.Time{}
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s *HTMLScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
