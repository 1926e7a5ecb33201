package selection

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/links"
	"SignalsDigest/internal/ports"
)

// FallbackWidening is how far the empty-digest fallback extends the period.
const FallbackWidening = 3 * 24 * time.Hour

const relaxedThreshold = 3

// Options bounds a section's selection.
type Options struct {
	ItemsPerSection  int
	PerDomainCap     int
	MinTextChars     int
	PriorityMinChars int
	AllowUndated     bool
}

// Selector runs the strict and relaxed passes for one digest run. Full-text
// fetches are memoised for its lifetime, so build one per run.
type Selector struct {
	rules  *Rules
	opts   Options
	texts  ports.TextExtractor
	logger *slog.Logger

	cache map[string]string
}

// New wires a per-run selector. A nil extractor keeps feed excerpts only.
func New(rules *Rules, opts Options, texts ports.TextExtractor, logger *slog.Logger) *Selector {
	if opts.ItemsPerSection <= 0 {
		opts.ItemsPerSection = 7
	}
	if opts.PerDomainCap <= 0 {
		opts.PerDomainCap = opts.ItemsPerSection
	}
	return &Selector{
		rules:  rules,
		opts:   opts,
		texts:  texts,
		logger: logger,
		cache:  map[string]string{},
	}
}

// Select picks up to ItemsPerSection items from pool. The strict pass runs
// first; a relaxed pass fills the gap when it yields too few.
func (s *Selector) Select(ctx context.Context, pool []domain.Item, period domain.Period) ([]domain.Item, []domain.Drop) {
	limit := s.opts.ItemsPerSection
	chosen, drops := s.pass(ctx, pool, period, true, limit)

	if len(chosen) < min(limit, relaxedThreshold) {
		fill, relaxedDrops := s.pass(ctx, pool, period, false, limit)
		drops = append(drops, relaxedDrops...)

		have := make(map[string]struct{}, len(chosen))
		for _, it := range chosen {
			have[it.URL] = struct{}{}
		}
		for _, it := range fill {
			if len(chosen) >= limit {
				break
			}
			if _, ok := have[it.URL]; ok {
				continue
			}
			have[it.URL] = struct{}{}
			chosen = append(chosen, it)
		}
	}
	return chosen, drops
}

// Fallback runs a relaxed pass over the period widened by FallbackWidening
// and keeps at most one item.
func (s *Selector) Fallback(ctx context.Context, pool []domain.Item, period domain.Period) ([]domain.Item, []domain.Drop) {
	return s.pass(ctx, pool, period.Widen(FallbackWidening), false, 1)
}

type scored struct {
	item  domain.Item
	score float64
}

func (s *Selector) pass(ctx context.Context, pool []domain.Item, period domain.Period, strict bool, limit int) ([]domain.Item, []domain.Drop) {
	var (
		drops      []domain.Drop
		candidates []scored
	)
	drop := func(it domain.Item, reason, detail string) {
		drops = append(drops, domain.Drop{Reason: reason, Section: it.Section, Title: it.Title, URL: it.URL, Detail: detail})
	}

	for _, it := range pool {
		if reason := s.rules.Check(it); reason != "" {
			drop(it, reason, "")
			continue
		}
		if s.rules.LowValue(it.URL) {
			drop(it, domain.DropLowValueURL, "")
			continue
		}
		if strict && !links.LooksArticleish(it.URL) {
			drop(it, domain.DropNotArticle, "")
			continue
		}

		published := it.PublishedAt
		if strict {
			published = effectiveDate(it)
		}
		if !s.inRange(published, period) {
			drop(it, domain.DropOutOfRange, it.PublishedDay())
			continue
		}

		text := s.fullText(ctx, it)
		priority := s.rules.Priority(it.URL)
		if strict && !s.substantial(text, priority) {
			drop(it, domain.DropLowSubstance, strconv.Itoa(len(text)))
			continue
		}

		it.Text = text
		candidates = append(candidates, scored{item: it, score: s.score(it, priority)})
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return effectiveDate(b.item).Compare(effectiveDate(a.item))
	})

	var chosen []domain.Item
	perDomain := map[string]int{}
	for _, c := range candidates {
		dom := links.Domain(c.item.URL)
		if perDomain[dom] >= s.opts.PerDomainCap {
			drop(c.item, domain.DropDomainCap, dom)
			continue
		}
		chosen = append(chosen, c.item)
		perDomain[dom]++
		if len(chosen) >= limit {
			break
		}
	}

	s.debug("selection pass", "strict", strict, "pool", len(pool), "scored", len(candidates), "chosen", len(chosen))
	return chosen, drops
}

func (s *Selector) inRange(published time.Time, period domain.Period) bool {
	if published.IsZero() {
		return s.opts.AllowUndated
	}
	return period.Contains(published)
}

func (s *Selector) substantial(text string, priority bool) bool {
	if priority {
		return len(text) >= s.opts.PriorityMinChars
	}
	return len(text) >= s.opts.MinTextChars
}

func (s *Selector) score(it domain.Item, priority bool) float64 {
	score := 0.0
	if priority {
		score += 1000
	}
	switch it.DateConfidence {
	case domain.ConfidenceHigh:
		score += 40
	case domain.ConfidenceMedium:
		score += 20
	case domain.ConfidenceLow:
		score += 5
	}
	score += math.Min(200, math.Sqrt(float64(len(it.Text)))*4)
	if links.LooksArticleish(it.URL) {
		score += 15
	}
	if s.rules.LowValue(it.URL) {
		score -= 200
	}
	return score
}

// fullText fetches and memoises article text, falling back to the excerpt.
func (s *Selector) fullText(ctx context.Context, it domain.Item) string {
	if text, ok := s.cache[it.URL]; ok {
		return text
	}

	var text string
	if it.Text != "" {
		text = it.Text
	} else if s.texts != nil {
		var err error
		text, err = s.texts.FullText(ctx, it.URL)
		if err != nil {
			s.debug("full text unavailable", "url", it.URL, "error", err)
			text = ""
		}
	}
	if text == "" {
		text = it.Excerpt
	}
	s.cache[it.URL] = text
	return text
}

// effectiveDate trusts medium and high confidence dates; a low confidence
// date counts only when the URL itself carries a date.
func effectiveDate(it domain.Item) time.Time {
	switch it.DateConfidence {
	case domain.ConfidenceHigh, domain.ConfidenceMedium:
		return it.PublishedAt
	case domain.ConfidenceLow:
		if links.HasDate(it.URL) {
			return it.PublishedAt
		}
	}
	return time.Time{}
}

func (s *Selector) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
