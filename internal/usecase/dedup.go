package usecase

import (
	"SignalsDigest/internal/domain"
	"SignalsDigest/internal/links"
)

// Dedup returns the items whose normalised URL is absent from seen, keeping
// the first occurrence of repeats within the batch. Neither seen nor the
// input slice is modified.
func Dedup(items []domain.Item, seen domain.SeenSet) ([]domain.Item, []domain.Drop) {
	var (
		fresh []domain.Item
		drops []domain.Drop
	)
	batch := make(map[string]struct{}, len(items))

	for _, it := range items {
		key := links.Normalise(it.URL, "")
		if key == "" {
			drops = append(drops, dropFor(it, domain.DropNoURL))
			continue
		}
		if seen.Has(key) {
			drops = append(drops, dropFor(it, domain.DropSeen))
			continue
		}
		if _, ok := batch[key]; ok {
			drops = append(drops, dropFor(it, domain.DropDuplicate))
			continue
		}
		batch[key] = struct{}{}

		it.URL = key
		fresh = append(fresh, it)
	}
	return fresh, drops
}

func dropFor(it domain.Item, reason string) domain.Drop {
	return domain.Drop{Reason: reason, Section: it.Section, Title: it.Title, URL: it.URL}
}
