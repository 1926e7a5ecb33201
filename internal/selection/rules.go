// Package selection filters, scores and caps candidate items per section.
package selection

import (
	"regexp"
	"slices"
	"strings"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/links"
)

// defaultDomainDeny lists evergreen and landing paths that are routinely mis-dated.
var defaultDomainDeny = map[string][]string{
	"arena.gov.au": {"/renewable-energy/", "/what-we-do/", "/who-we-work-with/", "/about/"},
	"cefc.com.au":  {"/where-we-invest/", "/investment-focus-areas/", "/investment-portfolio/", "/who-we-are/"},
	"ifrs.org":     {"/content/ifrs/home", "/issued-standards/list-of-standards/"},
}

var generalDenySubstrings = []string{
	"/sitemap", "/search", "/tag/", "/tags/", "/topic/", "/topics/", "/category/", "/categories/",
	"/author/", "/authors/", "/events", "/calendar", "/subscribe", "/newsletter",
}

// Rules is the compiled form of the filter configuration.
type Rules struct {
	allowDomains      []string
	denyDomains       []string
	denyURLSubstrings []string
	denyURLRegex      []*regexp.Regexp
	allowURLRegex     []*regexp.Regexp
	denyTitle         []*regexp.Regexp
	denyKeywords      []*regexp.Regexp
	domainDeny        map[string][]string
	priorityDomains   []string

	// Invalid lists patterns that failed to compile and were ignored.
	Invalid []string
}

// Compile lowercases lists, compiles case-insensitive patterns and merges
// per-domain deny substrings over the built-in defaults.
func Compile(f config.FilterConfig, priorityDomains []string) *Rules {
	r := &Rules{
		allowDomains:      lowerAll(f.AllowDomains),
		denyDomains:       lowerAll(f.DenyDomains),
		denyURLSubstrings: lowerAll(f.DenyURLSubstrings),
		priorityDomains:   lowerAll(priorityDomains),
		domainDeny:        map[string][]string{},
	}
	r.denyURLRegex = r.compileAll(f.DenyURLRegex)
	r.allowURLRegex = r.compileAll(f.AllowURLRegex)
	r.denyTitle = r.compileAll(f.DenyTitleKeywords)
	r.denyKeywords = r.compileAll(f.DenyKeywords)

	for dom, subs := range defaultDomainDeny {
		r.domainDeny[dom] = append([]string(nil), subs...)
	}
	for dom, subs := range f.DomainDenySubstrings {
		dom = strings.ToLower(strings.TrimSpace(dom))
		if dom == "" {
			continue
		}
		for _, s := range lowerAll(subs) {
			if !slices.Contains(r.domainDeny[dom], s) {
				r.domainDeny[dom] = append(r.domainDeny[dom], s)
			}
		}
	}
	return r
}

// Check returns "" when the item passes the configured filters, otherwise
// the drop reason.
func (r *Rules) Check(it domain.Item) string {
	url := strings.TrimSpace(it.URL)
	if url == "" {
		return domain.DropNoURL
	}
	dom := links.Domain(url)

	if len(r.denyDomains) > 0 && links.MatchesDomain(dom, r.denyDomains) {
		return domain.DropDenyDomain
	}
	if len(r.allowDomains) > 0 && !links.MatchesDomain(dom, r.allowDomains) {
		return domain.DropDomainNotAllowed
	}

	lower := strings.ToLower(url)
	for _, s := range r.denyURLSubstrings {
		if strings.Contains(lower, s) {
			return domain.DropDenyURLSubstring
		}
	}
	if matchAny(r.denyURLRegex, url) {
		return domain.DropDenyURLRegex
	}
	if len(r.allowURLRegex) > 0 && !matchAny(r.allowURLRegex, url) {
		return domain.DropAllowURLNoMatch
	}

	title := strings.TrimSpace(it.Title)
	if matchAny(r.denyTitle, title) {
		return domain.DropDenyTitle
	}
	if matchAny(r.denyKeywords, title+"\n"+strings.TrimSpace(it.RawText())) {
		return domain.DropDenyKeyword
	}
	return ""
}

// LowValue reports hub, taxonomy and evergreen landing URLs.
func (r *Rules) LowValue(url string) bool {
	lower := strings.ToLower(url)
	if lower == "" {
		return true
	}
	for _, s := range generalDenySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	dom := links.Domain(lower)
	for d, subs := range r.domainDeny {
		if !links.MatchesDomain(dom, []string{d}) {
			continue
		}
		for _, s := range subs {
			if strings.Contains(lower, s) {
				return true
			}
		}
	}
	return links.IsHub(lower)
}

// Priority reports whether url belongs to a priority domain.
func (r *Rules) Priority(url string) bool {
	return len(r.priorityDomains) > 0 && links.MatchesDomain(links.Domain(url), r.priorityDomains)
}

func (r *Rules) compileAll(patterns []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			r.Invalid = append(r.Invalid, p)
			continue
		}
		out = append(out, re)
	}
	return out
}

func matchAny(exprs []*regexp.Regexp, s string) bool {
	for _, re := range exprs {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
