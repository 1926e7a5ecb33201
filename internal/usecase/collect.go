package usecase

import (
	"context"
	"slices"
	"sync"

	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/ports"
)

// CachedSource collects each section once and replays the result. One is
// built per invocation so a multi-month backfill or several digest kinds
// share a single fetch of every feed and index page. Failed fetches are not
// cached.
type CachedSource struct {
	source ports.SectionSource

	mu       sync.Mutex
	sections map[string]collected
}

type collected struct {
	items []domain.Item
	drops []domain.Drop
}

var _ ports.SectionSource = (*CachedSource)(nil)

// NewCachedSource wraps source.
func NewCachedSource(source ports.SectionSource) *CachedSource {
	return &CachedSource{source: source, sections: map[string]collected{}}
}

// FetchSection returns a copy of the first successful collection of section.
func (c *CachedSource) FetchSection(ctx context.Context, section string) ([]domain.Item, []domain.Drop, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hit, ok := c.sections[section]; ok {
		return slices.Clone(hit.items), slices.Clone(hit.drops), nil
	}

	items, drops, err := c.source.FetchSection(ctx, section)
	if err != nil {
		return nil, nil, err
	}
	c.sections[section] = collected{items: items, drops: drops}
	return slices.Clone(items), slices.Clone(drops), nil
}
