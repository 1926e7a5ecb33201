package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/logging"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Test Energy News</title>
  <item>
    <title>Wind farm approved</title>
    <link>%[1]s/2025/11/03/wind-farm-approved</link>
    <description>The planning commission approved a 1.2 GW offshore wind farm after a two year review, with construction due to start next year.</description>
    <pubDate>Mon, 03 Nov 2025 09:00:00 +0000</pubDate>
  </item>
</channel>
</rss>`

const articlePage = `<!doctype html>
<html><head><title>Wind farm approved</title></head>
<body><main><article>
<h1>Wind farm approved</h1>
<p>The planning commission approved a 1.2 GW offshore wind farm after a two year review.</p>
<p>Construction is due to start next year and the project will connect to the transmission network by 2029.</p>
<p>The developer said financial close is expected within twelve months.</p>
</article></main></body></html>`

func newNewsServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newCountingNewsServer(t, new(atomic.Int32))
}

func newCountingNewsServer(t *testing.T, feedHits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			feedHits.Add(1)
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprintf(w, feedTemplate, "http://"+r.Host)
		case "/2025/11/03/wind-farm-approved":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(articlePage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, feedURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Output: config.OutputConfig{Directory: filepath.Join(dir, "out")},
		State:  config.StateConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "state", "seen_urls.json")},
		HTTP: config.HTTPConfig{
			TimeoutSeconds:    5,
			DateResolveBudget: 5,
			MaxEntriesPerFeed: 50,
		},
		Summarizer: config.SummarizerConfig{Provider: config.ProviderNone},
		Selection: config.SelectionConfig{
			ItemsPerSection:  5,
			MinTextChars:     50,
			PriorityMinChars: 50,
			LookbackDays:     1,
		},
		Sections: []config.SectionConfig{{
			Name:    "Energy Transition",
			Sources: []config.SourceConfig{{Name: "Test feed", Scanner: config.ScannerRSS, URL: feedURL}},
		}},
		Digests: []config.DigestConfig{
			{Kind: "daily-signals", Title: "Daily Signals", Cadence: "daily", Sections: []string{"Energy Transition"}},
			{Kind: "monthly-digest", Title: "Signals Digest", Cadence: "monthly", Sections: []string{"Energy Transition"}},
		},
	}
}

func TestRunDailyWritesDigestAndState(t *testing.T) {
	srv := newNewsServer(t)
	cfg := testConfig(t, srv.URL+"/feed")

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	day := time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)
	reports, err := application.RunDaily(context.Background(), day, "")
	require.NoError(t, err)
	require.Len(t, reports, 1)

	assert.Equal(t, filepath.Join(cfg.Output.Directory, "daily-signals-2025-11-03.md"), reports[0].Path)
	raw, err := os.ReadFile(reports[0].Path)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "### Wind farm approved")
	assert.Contains(t, body, "Automated fallback summary (LLM unavailable)")

	storyURL := srv.URL + "/2025/11/03/wind-farm-approved"
	state, err := os.ReadFile(cfg.State.Path)
	require.NoError(t, err)
	assert.Contains(t, string(state), storyURL)

	again, err := application.RunDaily(context.Background(), day, "daily-signals")
	require.NoError(t, err)
	raw, err = os.ReadFile(again[0].Path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), storyURL)
	assert.True(t, strings.Contains(string(raw), "No items selected for the period"))
}

func TestRunMonthlyBackfill(t *testing.T) {
	srv := newNewsServer(t)
	cfg := testConfig(t, srv.URL+"/feed")

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	reports, err := application.RunMonthly(context.Background(), "2025-10", "2025-11", "")
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "monthly-digest", reports[0].Kind)
	assert.Equal(t, "2025-10", reports[0].Period.Label)
	assert.Equal(t, "2025-11", reports[1].Period.Label)
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "monthly-digest-2025-10.md"))
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "monthly-digest-2025-11.md"))
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "debug-meta-monthly-digest-2025-11.yaml"))
}

func TestRunMonthlyFetchesFeedsOnce(t *testing.T) {
	var feedHits atomic.Int32
	srv := newCountingNewsServer(t, &feedHits)
	cfg := testConfig(t, srv.URL+"/feed")
	cfg.Digests = append(cfg.Digests, config.DigestConfig{
		Kind: "monthly-brief", Title: "Monthly Brief", Cadence: "monthly", Sections: []string{"Energy Transition"},
	})

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	reports, err := application.RunMonthly(context.Background(), "2025-09", "2025-11", "")
	require.NoError(t, err)
	require.Len(t, reports, 6)
	assert.Equal(t, int32(1), feedHits.Load(), "three months and two kinds share one collection")

	_, err = application.RunMonthly(context.Background(), "2025-11", "", "monthly-digest")
	require.NoError(t, err)
	assert.Equal(t, int32(2), feedHits.Load(), "a new invocation collects again")
}

func TestRunUnknownKind(t *testing.T) {
	srv := newNewsServer(t)
	application, err := New(context.Background(), testConfig(t, srv.URL+"/feed"), logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	_, err = application.RunDaily(context.Background(), time.Now(), "nope")
	assert.Error(t, err)

	_, err = application.RunMonthly(context.Background(), "2025-11", "2025-10", "")
	assert.Error(t, err)
}
