package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/domain"
)

func TestRulesCheck(t *testing.T) {
	t.Parallel()

	rules := Compile(config.FilterConfig{
		AllowDomains:      []string{"example.com", "example.org"},
		DenyDomains:       []string{"spam.example.com"},
		DenyURLSubstrings: []string{"/Careers/"},
		DenyURLRegex:      []string{`/jobs?/`},
		AllowURLRegex:     []string{`/(news|media)/`},
		DenyTitleKeywords: []string{`^podcast`},
		DenyKeywords:      []string{`sponsored content`},
	}, nil)

	cases := []struct {
		item domain.Item
		want string
	}{
		{domain.Item{}, domain.DropNoURL},
		{domain.Item{URL: "https://spam.example.com/news/a"}, domain.DropDenyDomain},
		{domain.Item{URL: "https://other.net/news/a"}, domain.DropDomainNotAllowed},
		{domain.Item{URL: "https://example.com/careers/news/a"}, domain.DropDenyURLSubstring},
		{domain.Item{URL: "https://example.com/job/news/a"}, domain.DropDenyURLRegex},
		{domain.Item{URL: "https://example.com/blog/a"}, domain.DropAllowURLNoMatch},
		{domain.Item{URL: "https://example.com/news/a", Title: "Podcast: episode 4"}, domain.DropDenyTitle},
		{domain.Item{URL: "https://example.com/news/a", Title: "Update", Excerpt: "This is SPONSORED content."}, domain.DropDenyKeyword},
		{domain.Item{URL: "https://example.org/media/a", Title: "Grid update"}, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rules.Check(tc.item), tc.item.URL)
	}
}

func TestRulesIgnoresInvalidPatterns(t *testing.T) {
	t.Parallel()

	rules := Compile(config.FilterConfig{DenyKeywords: []string{`(?<=lookbehind)`, `valid`}}, nil)
	assert.Equal(t, []string{`(?<=lookbehind)`}, rules.Invalid)
	assert.Equal(t, domain.DropDenyKeyword, rules.Check(domain.Item{URL: "https://x.com/a", Title: "VALID"}))
}

func TestRulesLowValue(t *testing.T) {
	t.Parallel()

	rules := Compile(config.FilterConfig{
		DomainDenySubstrings: map[string][]string{"Example.gov": {"/Programs/"}},
	}, nil)

	assert.True(t, rules.LowValue(""))
	assert.True(t, rules.LowValue("https://site.com/newsletter/signup-today"))
	assert.True(t, rules.LowValue("https://arena.gov.au/what-we-do/some-program-page"))
	assert.True(t, rules.LowValue("https://www.example.gov/programs/solar-homes-rebate"))
	assert.True(t, rules.LowValue("https://site.com/news"))
	assert.False(t, rules.LowValue("https://arena.gov.au/news/big-battery-funding-announced"))
}

func TestRulesPriority(t *testing.T) {
	t.Parallel()

	rules := Compile(config.FilterConfig{}, []string{"cefc.com.au"})
	assert.True(t, rules.Priority("https://www.cefc.com.au/media/release"))
	assert.False(t, rules.Priority("https://example.com/cefc.com.au"))
}
