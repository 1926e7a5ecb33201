package web

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"

	"SignalsDigest/internal/links"
	"SignalsDigest/internal/ports"
)

const (
	maxPDFBytes = 5 << 20
	maxPDFPages = 30
)

var blankLinesExpr = regexp.MustCompile(`\n{3,}`)

// Extractor turns article URLs into clean main text.
type Extractor struct {
	client    *Client
	converter *md.Converter
}

var _ ports.TextExtractor = (*Extractor)(nil)

// NewExtractor wires the shared client and a Markdown converter.
func NewExtractor(client *Client) *Extractor {
	return &Extractor{
		client:    client,
		converter: md.NewConverter("", true, nil),
	}
}

// FullText fetches rawURL and returns its readable text. PDFs are read page
// by page; HTML goes through readability, then Markdown conversion, with a
// plain DOM text fallback.
func (e *Extractor) FullText(ctx context.Context, rawURL string) (string, error) {
	resp, err := e.client.GetOK(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if links.LooksLikePDF(rawURL, resp.ContentType) {
		text, err := pdfText(resp.Body)
		if err != nil {
			return "", fmt.Errorf("pdf %s: %w", rawURL, err)
		}
		return text, nil
	}

	return e.htmlText(resp.Body, resp.URL), nil
}

func (e *Extractor) htmlText(body []byte, pageURL string) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}

	if parsed, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil {
			if text := e.markdown(article.Content); text != "" {
				return text
			}
			if text := CleanText(article.TextContent); text != "" {
				return text
			}
		}
	}

	return domText(body)
}

func (e *Extractor) markdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	out, err := e.converter.ConvertString(html)
	if err != nil {
		return ""
	}
	return CleanText(out)
}

func domText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer, header, aside, noscript").Remove()

	var lines []string
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		for _, line := range strings.Split(s.Text(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	})
	return CleanText(strings.Join(lines, "\n"))
}

func pdfText(body []byte) (string, error) {
	if len(body) > maxPDFBytes {
		body = body[:maxPDFBytes]
	}
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return CleanText(sb.String()), nil
}

// CleanText trims lines and collapses runs of blank lines.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLinesExpr.ReplaceAllString(s, "\n\n"))
}
