package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/scanner"
)

const indexPage = `<!doctype html>
<html><body>
<nav><a href="/">Home</a><a href="/tag/solar">Solar tag page</a></nav>
<main>
  <article>
    <h2><a href="/news/hinted-story">Transmission upgrade approved</a></h2>
    <time datetime="2025-10-01T09:00:00Z">1 October 2025</time>
  </article>
  <article>
    <a href="/2025/09/30/url-dated-story">Hydrogen hub funding round</a>
  </article>
  <article>
    <a href="/news/battery-story">Community battery rollout begins</a>
  </article>
  <article>
    <a href="/reports/annual-report.pdf">Annual report 2025</a>
  </article>
  <article>
    <a href="/tag/solar">Solar</a>
  </article>
  <p><a href="/news/hinted-story#top">Transmission upgrade approved</a></p>
  <p><a href="/about">About</a></p>
</main>
</body></html>`

const storyPage = `<html><head>
<meta property="article:published_time" content="2025-09-28T04:00:00Z">
</head><body><p>Story</p></body></html>`

func newIndexServer(t *testing.T, resolves *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/news/battery-story", func(w http.ResponseWriter, _ *http.Request) {
		resolves.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(storyPage))
	})
	mux.HandleFunc("/reports/annual-report.pdf", func(w http.ResponseWriter, _ *http.Request) {
		resolves.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Last-Modified", "Wed, 01 Oct 2025 07:28:00 GMT")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	return httptest.NewServer(mux)
}

func TestHTMLScannerScan(t *testing.T) {
	t.Parallel()

	var resolves atomic.Int32
	srv := newIndexServer(t, &resolves)
	defer srv.Close()

	s := NewHTMLScanner(newTestClient(), 0, nil)
	items, err := s.Scan(context.Background(), scanner.Request{
		Section:    "Energy Transition",
		SourceName: "Agency news",
		URL:        srv.URL + "/news",
	})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	byURL := map[string]domain.Item{}
	for _, it := range items {
		byURL[strings.TrimPrefix(it.URL, srv.URL)] = it
	}

	if _, ok := byURL["/tag/solar"]; ok {
		t.Fatalf("taxonomy link should be rejected")
	}
	if _, ok := byURL["/about"]; ok {
		t.Fatalf("short-titled fallback link should be ignored")
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d: %+v", len(items), items)
	}

	expect := map[string]struct {
		day    string
		conf   domain.DateConfidence
		source string
	}{
		"/news/hinted-story":          {"2025-10-01", domain.ConfidenceMedium, "url_or_index_hint"},
		"/2025/09/30/url-dated-story": {"2025-09-30", domain.ConfidenceMedium, "url_or_index_hint"},
		"/news/battery-story":         {"2025-09-28", domain.ConfidenceHigh, "meta:article:published_time"},
		"/reports/annual-report.pdf":  {"2025-10-01", domain.ConfidenceLow, "header:last-modified"},
	}
	for path, want := range expect {
		it, ok := byURL[path]
		if !ok {
			t.Fatalf("missing item %s", path)
		}
		if it.PublishedDay() != want.day || it.DateConfidence != want.conf || it.DateSource != want.source {
			t.Fatalf("%s: got %s/%s/%s, want %+v", path, it.PublishedDay(), it.DateConfidence, it.DateSource, want)
		}
		if it.Section != "Energy Transition" || it.Source != "Agency news" {
			t.Fatalf("%s: unexpected section/source %q/%q", path, it.Section, it.Source)
		}
	}
	if byURL["/news/hinted-story"].Title != "Transmission upgrade approved" {
		t.Fatalf("unexpected title %q", byURL["/news/hinted-story"].Title)
	}
	if got := resolves.Load(); got != 2 {
		t.Fatalf("expected 2 resolve fetches, got %d", got)
	}
}

func TestHTMLScannerResolveBudget(t *testing.T) {
	t.Parallel()

	var resolves atomic.Int32
	srv := newIndexServer(t, &resolves)
	defer srv.Close()

	items, err := NewHTMLScanner(newTestClient(), 1, nil).Scan(context.Background(), scanner.Request{URL: srv.URL + "/news"})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if got := resolves.Load(); got != 1 {
		t.Fatalf("expected a single resolve fetch, got %d", got)
	}

	undated := 0
	for _, it := range items {
		if !it.Dated() {
			undated++
		}
	}
	if undated != 1 {
		t.Fatalf("expected one undated item once the budget is spent, got %d", undated)
	}
}

func TestExtractCandidatesPrefersBlocks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<div class="media-release"><h3>Headline only in heading</h3><a href="/media/release-one"></a></div>
	<div class="sidebar"><a href="/other-long-link">Another long link</a></div>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	got := extractCandidates(doc, "https://example.org/media", "")
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", got)
	}
	if got[0].url != "https://example.org/media/release-one" || got[0].title != "Headline only in heading" {
		t.Fatalf("unexpected block candidate %+v", got[0])
	}
	if got[1].url != "https://example.org/other-long-link" {
		t.Fatalf("unexpected fallback candidate %+v", got[1])
	}
}

func TestExtractCandidatesCustomSelector(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<ul class="listing">
	  <li class="entry"><a href="/insights/grid-code-review">Grid code review opens</a></li>
	  <li class="entry"><a href="/insights/offshore-auction">Offshore auction results</a></li>
	</ul>
	<div class="news-sidebar"><a href="/news/sidebar-story">Sidebar story headline</a></div>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	got := extractCandidates(doc, "https://example.org/insights", "li.entry")
	if len(got) != 2 {
		t.Fatalf("expected only the selected blocks, got %+v", got)
	}
	if got[0].url != "https://example.org/insights/grid-code-review" || got[1].url != "https://example.org/insights/offshore-auction" {
		t.Fatalf("unexpected candidates %+v", got)
	}

	none := extractCandidates(doc, "https://example.org/insights", "article.missing")
	if len(none) != 3 {
		t.Fatalf("selector without matches should fall back to titled links, got %+v", none)
	}
}

func TestHTMLScannerSourceOptions(t *testing.T) {
	t.Parallel()

	var resolves atomic.Int32
	srv := newIndexServer(t, &resolves)
	defer srv.Close()

	req := scanner.Request{
		URL:     srv.URL + "/news",
		Options: map[string]string{OptionResolveBudget: "0"},
	}
	items, err := NewHTMLScanner(newTestClient(), 75, nil).Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if got := resolves.Load(); got != 0 {
		t.Fatalf("a zero resolve budget should skip page fetches, got %d", got)
	}
	if len(items) == 0 {
		t.Fatalf("expected candidates from the index")
	}
}

func TestHTMLScannerPDFIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	items, err := NewHTMLScanner(newTestClient(), 0, nil).Scan(context.Background(), scanner.Request{URL: srv.URL + "/docs/outlook.pdf"})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "outlook.pdf" {
		t.Fatalf("expected the pdf itself as a single item, got %+v", items)
	}
}
