package links

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalise(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{"strips www and fragment", "https://WWW.Example.com/a//b#top", "", "https://example.com/a/b"},
		{"resolves relative", "/news/solar-farm", "https://www.arena.gov.au/news/", "https://arena.gov.au/news/solar-farm"},
		{"defaults root path", "https://example.com", "", "https://example.com/"},
		{"keeps query", "https://example.com/doc?id=4", "", "https://example.com/doc?id=4"},
		{"rejects mailto", "mailto:press@example.com", "", ""},
		{"rejects empty", "   ", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalise(tc.raw, tc.base))
		})
	}
}

func TestNormaliseIsIdempotent(t *testing.T) {
	t.Parallel()

	once := Normalise("http://www.Example.com//x/y#frag", "")
	assert.Equal(t, once, Normalise(once, ""))
}

func TestDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cefc.com.au", Domain("https://www.CEFC.com.au/media/"))
	assert.True(t, MatchesDomain("news.ifrs.org", []string{"ifrs.org"}))
	assert.False(t, MatchesDomain("ifrs.org", []string{"example.org", ""}))
}

func TestIsHub(t *testing.T) {
	t.Parallel()

	hubs := []string{
		"https://example.com/",
		"https://example.com/news",
		"https://example.com/en/media/",
		"https://example.com/tag/solar",
		"https://example.com/insights?page=2",
		"https://example.com/topics/hydrogen/latest-update-2025",
	}
	for _, u := range hubs {
		assert.True(t, IsHub(u), u)
	}

	articles := []string{
		"https://example.com/news/2026/01/20/big-battery-approved",
		"https://example.com/reports/annual.pdf?page=1",
		"https://example.com/media/releases/cefc-commits-to-wind",
	}
	for _, u := range articles {
		assert.False(t, IsHub(u), u)
	}
}

func TestLooksArticleish(t *testing.T) {
	t.Parallel()

	assert.True(t, LooksArticleish("https://example.com/report.pdf"))
	assert.True(t, LooksArticleish("https://example.com/2026-01-20/x"))
	assert.True(t, LooksArticleish("https://example.com/news/green-hydrogen-plan"))
	assert.True(t, LooksArticleish("https://example.com/a/b/hydrogenplan"))
	assert.False(t, LooksArticleish("https://example.com/news"))
	assert.False(t, LooksArticleish("https://example.com/short"))
	assert.False(t, LooksArticleish(""))
}

func TestDateFromURL(t *testing.T) {
	t.Parallel()

	d, ok := DateFromURL("https://example.com/2026/01/20/story")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC), d)

	d, ok = DateFromURL("https://example.com/files/20251103-report.pdf")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC), d)

	_, ok = DateFromURL("https://example.com/2026/02/31/story")
	assert.False(t, ok)

	_, ok = DateFromURL("https://example.com/story")
	assert.False(t, ok)

	assert.True(t, HasDate("https://example.com/2026-03-04/story"))
	assert.False(t, HasDate("https://example.com/20260304/story"))
}

func TestLooksLikePDF(t *testing.T) {
	t.Parallel()

	assert.True(t, LooksLikePDF("https://example.com/X.PDF", ""))
	assert.True(t, LooksLikePDF("https://example.com/download", "application/pdf"))
	assert.False(t, LooksLikePDF("https://example.com/page", "text/html"))
}
