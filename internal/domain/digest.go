package domain

// Placeholders rendered when a digest or a section has nothing to show.
const (
	NoItemsInRange   = "NO_ITEMS_IN_RANGE"
	NoItemsForPeriod = "No items selected for the period"
)

// Section is one titled group of summarized items inside a digest.
type Section struct {
	Name  string
	Items []SummarizedItem
}

// DigestDocument is the assembled digest for one kind and period.
type DigestDocument struct {
	Kind     string
	Title    string
	Period   string
	TopLines []string
	Sections []Section
	Sources  []string
}

// ItemCount returns the number of items across all sections.
func (d DigestDocument) ItemCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Items)
	}
	return n
}
