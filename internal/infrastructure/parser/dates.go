package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	maxFutureSkew = 3 * 24 * time.Hour
	minYear       = 2000
)

var (
	yearOnlyExpr  = regexp.MustCompile(`^\s*(19|20)\d{2}\s*$`)
	yearMonthExpr = regexp.MustCompile(`^\s*(19|20)\d{2}[-/](0[1-9]|1[0-2])\s*$`)

	// Embedded dates in free text such as "Posted 8 Nov 2025 by ...".
	embeddedDateExprs = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}(T[\d:.]+(Z|[+-]\d{2}:?\d{2})?)?`),
		regexp.MustCompile(`\d{1,2} [A-Za-z]{3,9},? \d{4}`),
		regexp.MustCompile(`[A-Za-z]{3,9} \d{1,2},? \d{4}`),
	}
)

// ParseDate turns a date or datetime string into UTC. Partial dates
// (year or year-month only), dates before 2000 and dates more than three
// days past today are rejected.
func ParseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	if yearOnlyExpr.MatchString(v) || yearMonthExpr.MatchString(v) {
		return time.Time{}, false
	}

	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		var ok bool
		if t, ok = parseEmbedded(v); !ok {
			return time.Time{}, false
		}
	}
	t = t.UTC()
	if !plausible(t) {
		return time.Time{}, false
	}
	return t, true
}

// plausible rejects dates before 2000 and more than three days ahead.
func plausible(t time.Time) bool {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !t.After(today.Add(maxFutureSkew)) && t.UTC().Year() >= minYear
}

func parseEmbedded(v string) (time.Time, bool) {
	for _, expr := range embeddedDateExprs {
		m := expr.FindString(v)
		if m == "" {
			continue
		}
		for _, candidate := range []string{m, strings.Replace(m, ",", "", 1)} {
			if t, err := dateparse.ParseIn(candidate, time.UTC); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
