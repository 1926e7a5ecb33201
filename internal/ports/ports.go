package ports

import (
	"context"

	"SignalsDigest/internal/domain"
)

// SectionSource pulls candidate items for one configured section. Sources
// that fail are reported as drops rather than errors.
type SectionSource interface {
	FetchSection(ctx context.Context, section string) ([]domain.Item, []domain.Drop, error)
}

// SeenStore persists previously emitted URLs across runs.
type SeenStore interface {
	Load(ctx context.Context) (domain.SeenSet, error)
	Add(ctx context.Context, urls []string) error
	Close() error
}

// TextExtractor fetches full-text content for an item URL.
type TextExtractor interface {
	FullText(ctx context.Context, url string) (string, error)
}

// Summarizer converts raw item text into a structured summary.
type Summarizer interface {
	Summarize(ctx context.Context, item domain.Item) (domain.SummarizedItem, error)
}

// DigestWriter persists rendered digests and their debug artifacts.
type DigestWriter interface {
	WriteDigest(doc domain.DigestDocument, period domain.Period, body []byte) (string, error)
	WriteArtifacts(kind string, period domain.Period, artifacts Artifacts) error
}

// Artifacts is the per-run debugging output next to a digest.
type Artifacts struct {
	Drops    []domain.Drop
	Selected []domain.Item
	Meta     map[string]any
}

// Notifier streams written digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
