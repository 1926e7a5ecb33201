package domain

import (
	"fmt"
	"time"
)

// Cadence distinguishes daily digests from monthly ones.
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceMonthly Cadence = "monthly"
)

// Period is the half-open window [Start, End) a digest covers.
type Period struct {
	Cadence Cadence
	Start   time.Time
	End     time.Time
	Label   string
}

// DailyPeriod covers lookbackDays whole days ending with day (in day's location).
func DailyPeriod(day time.Time, lookbackDays int) Period {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	y, m, d := day.Date()
	endDay := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	return Period{
		Cadence: CadenceDaily,
		Start:   endDay.AddDate(0, 0, -(lookbackDays - 1)).UTC(),
		End:     endDay.AddDate(0, 0, 1).UTC(),
		Label:   endDay.Format("2006-01-02"),
	}
}

// MonthlyPeriod parses YYYY-MM and covers that calendar month in UTC.
func MonthlyPeriod(ym string) (Period, error) {
	start, err := time.Parse("2006-01", ym)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q: %w", ym, err)
	}
	return Period{
		Cadence: CadenceMonthly,
		Start:   start,
		End:     start.AddDate(0, 1, 0),
		Label:   start.Format("2006-01"),
	}, nil
}

// MonthRange lists every YYYY-MM from start to end inclusive.
func MonthRange(start, end string) ([]string, error) {
	from, err := time.Parse("2006-01", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start month %q: %w", start, err)
	}
	to, err := time.Parse("2006-01", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end month %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end month %s precedes start month %s", end, start)
	}

	var months []string
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 1, 0) {
		months = append(months, cur.Format("2006-01"))
	}
	return months, nil
}

// Contains reports whether Start <= t < End.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Widen returns a copy extended by d on both sides.
func (p Period) Widen(d time.Duration) Period {
	p.Start = p.Start.Add(-d)
	p.End = p.End.Add(d)
	return p
}
