package domain

import "time"

// DateConfidence grades how trustworthy a publication date is.
type DateConfidence string

const (
	ConfidenceHigh   DateConfidence = "high"
	ConfidenceMedium DateConfidence = "medium"
	ConfidenceLow    DateConfidence = "low"
	ConfidenceNone   DateConfidence = "none"
)

// Rank orders confidences so that higher is stronger.
func (c DateConfidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Item is one piece of source content collected before summarization.
type Item struct {
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Excerpt        string         `json:"excerpt,omitempty"`
	Text           string         `json:"text,omitempty"`
	Section        string         `json:"section"`
	Source         string         `json:"source"`
	IndexURL       string         `json:"index_url,omitempty"`
	PublishedAt    time.Time      `json:"published_at,omitempty"`
	DateSource     string         `json:"date_source,omitempty"`
	DateConfidence DateConfidence `json:"date_confidence"`
}

// Dated reports whether the item carries any publication date.
func (i Item) Dated() bool {
	return !i.PublishedAt.IsZero()
}

// PublishedDay renders the publication date as YYYY-MM-DD, or "" when undated.
func (i Item) PublishedDay() string {
	if !i.Dated() {
		return ""
	}
	return i.PublishedAt.UTC().Format("2006-01-02")
}

// RawText returns the best text available for summarization.
func (i Item) RawText() string {
	if i.Text != "" {
		return i.Text
	}
	return i.Excerpt
}

// SetPublished records a publication date with its provenance.
func (i *Item) SetPublished(t time.Time, source string, confidence DateConfidence) {
	i.PublishedAt = t.UTC()
	i.DateSource = source
	i.DateConfidence = confidence
}

// SummarizedItem is the structured summary produced for a single Item.
type SummarizedItem struct {
	Headline       string   `json:"headline"`
	Section        string   `json:"section"`
	Published      string   `json:"published"`
	Summary        string   `json:"summary"`
	WhyItMatters   string   `json:"why_it_matters"`
	SignalsToWatch []string `json:"signals_to_watch"`
	Sources        []string `json:"sources"`
	Notes          []string `json:"notes,omitempty"`
}

// Drop explains why a candidate did not make it into a digest.
type Drop struct {
	Reason  string `json:"reason"`
	Section string `json:"section"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Detail  string `json:"detail,omitempty"`
}

// Drop reasons recorded by collection, selection and summarization.
const (
	DropSourceError      = "source_error"
	DropSeen             = "seen"
	DropDuplicate        = "duplicate_in_run"
	DropNoURL            = "no_url"
	DropDenyDomain       = "deny_domain"
	DropDomainNotAllowed = "domain_not_allowed"
	DropDenyURLSubstring = "deny_url_substring"
	DropDenyURLRegex     = "deny_url_regex"
	DropAllowURLNoMatch  = "allow_url_regex_no_match"
	DropDenyTitle        = "deny_title_keyword"
	DropDenyKeyword      = "deny_keyword"
	DropLowValueURL      = "low_value_url"
	DropNotArticle       = "not_articleish"
	DropOutOfRange       = "out_of_range"
	DropLowSubstance     = "low_substance"
	DropDomainCap        = "domain_cap"
	DropSummarizeError   = "summarize_error"
)
