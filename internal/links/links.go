// Package links normalises URLs and classifies them as articles or hub pages.
package links

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	taxonomyExpr   = regexp.MustCompile(`(?i)/(tag|tags|topic|topics|category|categories|taxonomy|themes|theme|author|authors|search|sitemap|events|calendar)(/|$)`)
	paginationExpr = regexp.MustCompile(`(?i)(page=|p=|type=|filter=|sort=|q=)`)
	slashesExpr    = regexp.MustCompile(`/{2,}`)
	dashedDateExpr = regexp.MustCompile(`(20\d{2})[/-](0[1-9]|1[0-2])[/-]([0-3]\d)`)
	packedDateExpr = regexp.MustCompile(`(20\d{2})(0[1-9]|1[0-2])([0-3]\d)`)
)

// lowValueTails are path tails that mark landing or listing pages.
var lowValueTails = map[string]bool{
	"": true, "home": true, "index": true, "default": true, "overview": true,
	"about": true, "contact": true, "what-we-do": true, "who-we-are": true,
	"media": true, "news": true, "newsroom": true, "press": true,
	"publications": true, "resources": true, "insights": true, "updates": true,
	"funding": true, "grants": true, "invest": true, "investment": true, "investments": true,
}

// Normalise resolves raw against base and canonicalises it for deduplication:
// no fragment, https by default, lowercase host without "www.", single slashes.
// It returns "" for unparsable or non-http input.
func Normalise(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return ""
		}
		u = b.ResolveReference(u)
	}

	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := u.Path
	if path == "" {
		path = "/"
	}
	u.Path = slashesExpr.ReplaceAllString(path, "/")
	u.RawPath = ""
	return u.String()
}

// Domain returns the lowercase host without "www." or a trailing dot.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return strings.TrimSuffix(host, ".")
}

// MatchesDomain reports whether domain equals suffix or ends with it.
func MatchesDomain(domain string, suffixes []string) bool {
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && strings.HasSuffix(domain, s) {
			return true
		}
	}
	return false
}

// Tail returns the last non-empty path segment, lowercased.
func Tail(raw string) string {
	segs := segments(raw)
	if len(segs) == 0 {
		return ""
	}
	return strings.ToLower(segs[len(segs)-1])
}

// LooksLikePDF checks the URL suffix and the content type.
func LooksLikePDF(raw, contentType string) bool {
	return strings.HasSuffix(strings.ToLower(raw), ".pdf") || contentType == "application/pdf"
}

// IsHub is a conservative filter for index, taxonomy and landing pages.
func IsHub(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}

	path := strings.ToLower(u.Path)
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" && !hasDocumentExt(path) && paginationExpr.MatchString(u.RawQuery) {
		return true
	}
	if taxonomyExpr.MatchString(path) {
		return true
	}

	segs := segments(raw)
	tail := Tail(raw)
	return lowValueTails[tail] && len(segs) <= 2
}

// LooksArticleish favours URLs with a date, a PDF suffix or a distinct slug.
func LooksArticleish(raw string) bool {
	if raw == "" {
		return false
	}
	lower := strings.ToLower(raw)
	if strings.HasSuffix(lower, ".pdf") || HasDate(lower) {
		return true
	}

	segs := segments(lower)
	if len(segs) == 0 {
		return false
	}
	tail := segs[len(segs)-1]
	if lowValueTails[tail] {
		return false
	}
	if strings.Contains(tail, "-") && len(tail) >= 12 {
		return true
	}
	return len(segs) >= 3 && len(tail) >= 10
}

// HasDate reports whether the URL path embeds a YYYY-MM-DD style date.
func HasDate(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return dashedDateExpr.MatchString(u.Path)
}

// DateFromURL extracts 2026/01/20, 2026-01-20 or 20260120 from the path.
func DateFromURL(raw string) (time.Time, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return time.Time{}, false
	}

	m := dashedDateExpr.FindStringSubmatch(u.Path)
	if m == nil {
		m = packedDateExpr.FindStringSubmatch(u.Path)
	}
	if m == nil {
		return time.Time{}, false
	}

	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 2026-02-31 into March; reject those.
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

func segments(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	var out []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func hasDocumentExt(path string) bool {
	for _, ext := range []string{".pdf", ".doc", ".docx"} {
		if strings.Contains(path, ext) {
			return true
		}
	}
	return false
}
