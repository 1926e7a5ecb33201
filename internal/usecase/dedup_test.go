package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalsDigest/internal/domain"
)

func TestDedup(t *testing.T) {
	t.Parallel()

	seen := domain.NewSeenSet("https://example.com/old-story")
	items := []domain.Item{
		{URL: "https://www.example.com/old-story#comments", Title: "Old"},
		{URL: "https://example.com/new-story", Title: "New"},
		{URL: "https://EXAMPLE.com/new-story", Title: "New again"},
		{URL: "", Title: "Nothing"},
		{URL: "https://example.com/another-story", Title: "Another"},
	}

	fresh, drops := Dedup(items, seen)

	require.Len(t, fresh, 2)
	assert.Equal(t, "New", fresh[0].Title, "first occurrence wins")
	assert.Equal(t, "https://example.com/another-story", fresh[1].URL)

	reasons := make([]string, 0, len(drops))
	for _, d := range drops {
		reasons = append(reasons, d.Reason)
	}
	assert.Equal(t, []string{domain.DropSeen, domain.DropDuplicate, domain.DropNoURL}, reasons)

	assert.Len(t, seen, 1, "dedup has no side effects on the seen set")
	assert.Equal(t, "https://www.example.com/old-story#comments", items[0].URL)
}

func TestDedupRerunYieldsNothing(t *testing.T) {
	t.Parallel()

	items := []domain.Item{
		{URL: "https://example.com/a-story"},
		{URL: "https://example.com/b-story"},
	}
	fresh, _ := Dedup(items, domain.NewSeenSet())

	seen := domain.NewSeenSet()
	for _, it := range fresh {
		seen.Add(it.URL)
	}

	again, drops := Dedup(items, seen)
	assert.Empty(t, again)
	assert.Len(t, drops, 2)
}
