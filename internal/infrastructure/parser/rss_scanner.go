package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/infrastructure/web"
	"SignalsDigest/internal/links"
	"SignalsDigest/internal/scanner"
)

const defaultMaxEntries = 500

// RSSScanner reads RSS and Atom feeds.
type RSSScanner struct {
	client     *web.Client
	maxEntries int
}

// NewRSSScanner wires the shared fetch client; maxEntries defaults to 500.
func NewRSSScanner(client *web.Client, maxEntries int) *RSSScanner {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &RSSScanner{client: client, maxEntries: maxEntries}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan fetches the feed and converts its entries into items.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Item, error) {
	feedURL := links.Normalise(req.URL, "")
	if feedURL == "" {
		return nil, fmt.Errorf("invalid feed url %q", req.URL)
	}

	resp, err := s.client.GetOK(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	return parseFeed(resp.Text(), feedURL, req, s.maxEntries)
}

func parseFeed(body, feedURL string, req scanner.Request, maxEntries int) ([]domain.Item, error) {
	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := parsed.Items
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	items := make([]domain.Item, 0, len(entries))
	for _, entry := range entries {
		link := links.Normalise(extractLink(entry), feedURL)
		if link == "" {
			continue
		}

		item := domain.Item{
			URL:      link,
			Title:    strings.TrimSpace(entry.Title),
			Excerpt:  htmlText(firstNonEmpty(entry.Description, entry.Content)),
			Section:  req.Section,
			Source:   firstNonEmpty(req.SourceName, feedURL),
			IndexURL: feedURL,
		}
		if t, ok := entryDate(entry); ok {
			item.SetPublished(t, "rss", domain.ConfidenceMedium)
		}
		items = append(items, item)
	}
	return items, nil
}

// extractLink prefers the explicit Link field, falling back to the GUID if it
// looks like an HTTP URL.
func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if strings.HasPrefix(entry.GUID, "http") {
		return entry.GUID
	}
	return ""
}

func entryDate(entry *gofeed.Item) (time.Time, bool) {
	for _, raw := range []string{entry.Published, entry.Updated} {
		if t, ok := ParseDate(raw); ok {
			return t, true
		}
	}
	for _, parsed := range []*time.Time{entry.PublishedParsed, entry.UpdatedParsed} {
		if parsed != nil && plausible(*parsed) {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func htmlText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
