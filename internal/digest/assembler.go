// Package digest groups summarized items into a DigestDocument and renders
// it as Markdown.
package digest

import (
	"strings"

	"SignalsDigest/internal/domain"
)

const maxTopLines = 3

// Spec names a digest and the sections it shows, in display order.
type Spec struct {
	Kind     string
	Title    string
	Period   string
	Sections []string
}

// Assemble groups items by section, keeping arrival order within a section.
// Configured sections come first in their configured order, even when empty;
// items for sections outside the configuration get their own trailing
// sections in first-arrival order.
func Assemble(spec Spec, items []domain.SummarizedItem) domain.DigestDocument {
	doc := domain.DigestDocument{
		Kind:   spec.Kind,
		Title:  spec.Title,
		Period: spec.Period,
	}

	index := map[string]int{}
	for _, name := range spec.Sections {
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = len(doc.Sections)
		doc.Sections = append(doc.Sections, domain.Section{Name: name})
	}

	for _, it := range items {
		i, ok := index[it.Section]
		if !ok {
			i = len(doc.Sections)
			index[it.Section] = i
			doc.Sections = append(doc.Sections, domain.Section{Name: it.Section})
		}
		doc.Sections[i].Items = append(doc.Sections[i].Items, it)
	}

	doc.TopLines = topLines(doc.Sections)
	doc.Sources = sources(doc.Sections)
	return doc
}

// topLines takes the first item of every non-empty section, then the second
// ones, until maxTopLines lines are collected.
func topLines(sections []domain.Section) []string {
	var lines []string
	for round := 0; len(lines) < maxTopLines; round++ {
		progressed := false
		for _, s := range sections {
			if round >= len(s.Items) {
				continue
			}
			progressed = true
			lines = append(lines, TopLine(s.Items[round]))
			if len(lines) == maxTopLines {
				break
			}
		}
		if !progressed {
			break
		}
	}
	if len(lines) == 0 {
		return []string{domain.NoItemsForPeriod}
	}
	return lines
}

// TopLine renders "**headline** — why it matters".
func TopLine(it domain.SummarizedItem) string {
	line := "**" + inline(it.Headline) + "**"
	if why := inline(it.WhyItMatters); why != "" {
		line += " — " + why
	}
	return line
}

func sources(sections []domain.Section) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range sections {
		for _, it := range s.Items {
			for _, u := range it.Sources {
				u = strings.TrimSpace(u)
				if u == "" {
					continue
				}
				if _, ok := seen[u]; ok {
					continue
				}
				seen[u] = struct{}{}
				out = append(out, u)
			}
		}
	}
	return out
}
