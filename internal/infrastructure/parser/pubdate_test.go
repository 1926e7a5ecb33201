package parser

import (
	"testing"

	"SignalsDigest/internal/domain"
)

func TestExtractPublished(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		html   string
		day    string
		conf   domain.DateConfidence
		source string
	}{
		{
			name: "jsonld graph",
			html: `<html><head><script type="application/ld+json">
			{"@context":"https://schema.org","@graph":[
			  {"@type":"WebPage","datePublished":"2020-01-01"},
			  {"@type":["NewsArticle"],"datePublished":"2025-10-03T08:00:00Z","dateModified":"2025-10-09"}
			]}</script>
			<meta property="article:published_time" content="2025-09-01T00:00:00Z"></head></html>`,
			day:    "2025-10-03",
			conf:   domain.ConfidenceHigh,
			source: "jsonld:datePublished",
		},
		{
			name:   "article meta",
			html:   `<html><head><meta property="article:published_time" content="2025-09-01T10:00:00Z"></head></html>`,
			day:    "2025-09-01",
			conf:   domain.ConfidenceHigh,
			source: "meta:article:published_time",
		},
		{
			name:   "og meta is medium",
			html:   `<html><head><meta property="og:published_time" content="2025-08-15"></head></html>`,
			day:    "2025-08-15",
			conf:   domain.ConfidenceMedium,
			source: "meta:og:published_time",
		},
		{
			name: "time with publish hint",
			html: `<html><body><time datetime="2025-06-01">updated</time>
			<time class="published" datetime="2025-05-20T09:00:00Z">20 May</time></body></html>`,
			day:    "2025-05-20",
			conf:   domain.ConfidenceHigh,
			source: "time:publish-hint",
		},
		{
			name:   "any time datetime",
			html:   `<html><body><time datetime="2025-04-02">2 April</time></body></html>`,
			day:    "2025-04-02",
			conf:   domain.ConfidenceMedium,
			source: "time:datetime",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ExtractPublished([]byte(tc.html))
			if !ok {
				t.Fatalf("no date extracted")
			}
			if day := got.Time.Format("2006-01-02"); day != tc.day {
				t.Fatalf("day = %s, want %s", day, tc.day)
			}
			if got.Confidence != tc.conf {
				t.Fatalf("confidence = %s, want %s", got.Confidence, tc.conf)
			}
			if got.Source != tc.source {
				t.Fatalf("source = %s, want %s", got.Source, tc.source)
			}
		})
	}
}

func TestExtractPublishedIgnoresModifiedOnly(t *testing.T) {
	t.Parallel()

	html := `<html><head>
	<meta property="article:modified_time" content="2025-09-01T10:00:00Z">
	<script type="application/ld+json">{"@type":"Organization","foundingDate":"2001-01-01"}</script>
	</head><body><p>Updated 2025</p></body></html>`

	if got, ok := ExtractPublished([]byte(html)); ok {
		t.Fatalf("expected no date, got %+v", got)
	}
}

func TestExtractPublishedEmpty(t *testing.T) {
	t.Parallel()

	if _, ok := ExtractPublished(nil); ok {
		t.Fatalf("expected no date for empty page")
	}
}
