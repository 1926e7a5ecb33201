package parser

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SignalsDigest/internal/domain"
)

// PublishedDate is a publication date together with where it was found.
type PublishedDate struct {
	Time       time.Time
	Confidence domain.DateConfidence
	Source     string
}

type metaSignal struct {
	selector   string
	confidence domain.DateConfidence
	source     string
}

// Only publication signals; modified/updated tags are deliberately absent.
var metaSignals = []metaSignal{
	{`meta[property="article:published_time"]`, domain.ConfidenceHigh, "meta:article:published_time"},
	{`meta[property="og:published_time"]`, domain.ConfidenceMedium, "meta:og:published_time"},
	{`meta[name="parsely-pub-date"]`, domain.ConfidenceMedium, "meta:parsely-pub-date"},
	{`meta[name="pubdate"]`, domain.ConfidenceMedium, "meta:pubdate"},
	{`meta[name="publishdate"]`, domain.ConfidenceMedium, "meta:publishdate"},
	{`meta[itemprop="datePublished"]`, domain.ConfidenceHigh, "meta:itemprop:datePublished"},
	{`meta[name="datePublished"]`, domain.ConfidenceHigh, "meta:datePublished"},
}

var articleTypes = map[string]bool{
	"Article":     true,
	"NewsArticle": true,
	"BlogPosting": true,
	"Report":      true,
}

var jsonObjectExpr = regexp.MustCompile(`(?s)\{.*?\}`)

// ExtractPublished finds the publication date of an HTML page from strong
// signals only: JSON-LD, publication meta tags, then <time> elements.
func ExtractPublished(html []byte) (PublishedDate, bool) {
	if len(bytes.TrimSpace(html)) == 0 {
		return PublishedDate{}, false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return PublishedDate{}, false
	}
	return extractPublishedDoc(doc)
}

func extractPublishedDoc(doc *goquery.Document) (PublishedDate, bool) {
	if raw := jsonLDDatePublished(doc); raw != "" {
		if t, ok := ParseDate(raw); ok {
			return PublishedDate{Time: t, Confidence: domain.ConfidenceHigh, Source: "jsonld:datePublished"}, true
		}
	}

	for _, sig := range metaSignals {
		content, ok := doc.Find(sig.selector).First().Attr("content")
		if !ok {
			continue
		}
		if t, ok := ParseDate(content); ok {
			return PublishedDate{Time: t, Confidence: sig.confidence, Source: sig.source}, true
		}
	}

	var found PublishedDate
	doc.Find("time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !hasPublishHint(s) {
			return true
		}
		raw := s.AttrOr("datetime", "")
		if raw == "" {
			raw = s.Text()
		}
		if t, ok := ParseDate(raw); ok {
			found = PublishedDate{Time: t, Confidence: domain.ConfidenceHigh, Source: "time:publish-hint"}
			return false
		}
		return true
	})
	if !found.Time.IsZero() {
		return found, true
	}

	doc.Find("time[datetime]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t, ok := ParseDate(s.AttrOr("datetime", "")); ok {
			found = PublishedDate{Time: t, Confidence: domain.ConfidenceMedium, Source: "time:datetime"}
			return false
		}
		return true
	})
	return found, !found.Time.IsZero()
}

func hasPublishHint(s *goquery.Selection) bool {
	if len(s.Nodes) == 0 {
		return false
	}
	var attrs []string
	for _, a := range s.Nodes[0].Attr {
		attrs = append(attrs, a.Val)
	}
	joined := strings.ToLower(strings.Join(attrs, " "))
	return strings.Contains(joined, "publish") || strings.Contains(joined, "posted")
}

func jsonLDDatePublished(doc *goquery.Document) string {
	var out string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			return true
		}

		var blobs []any
		var whole any
		if err := json.Unmarshal([]byte(txt), &whole); err == nil {
			blobs = append(blobs, whole)
		} else {
			for _, m := range jsonObjectExpr.FindAllString(txt, -1) {
				var part any
				if json.Unmarshal([]byte(m), &part) == nil {
					blobs = append(blobs, part)
				}
			}
		}

		for _, blob := range blobs {
			if v := findDatePublished(blob); v != "" {
				out = v
				return false
			}
		}
		return true
	})
	return out
}

func findDatePublished(v any) string {
	switch node := v.(type) {
	case []any:
		for _, child := range node {
			if d := findDatePublished(child); d != "" {
				return d
			}
		}
	case map[string]any:
		if isArticleNode(node["@type"]) {
			for _, key := range []string{"datePublished", "dateCreated"} {
				if s, ok := node[key].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
		if graph, ok := node["@graph"]; ok {
			return findDatePublished(graph)
		}
	}
	return ""
}

func isArticleNode(t any) bool {
	switch v := t.(type) {
	case string:
		return articleTypes[v]
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok && articleTypes[s] {
				return true
			}
		}
	}
	return false
}
