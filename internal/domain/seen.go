package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
)

// SeenSet is the in-memory view of previously emitted URLs.
type SeenSet map[string]struct{}

// NewSeenSet builds a set from the provided URLs.
func NewSeenSet(urls ...string) SeenSet {
	s := make(SeenSet, len(urls))
	for _, u := range urls {
		s.Add(u)
	}
	return s
}

// Has reports whether url was seen before, either stored as-is or as the
// hex SHA-1 digest older state files recorded.
func (s SeenSet) Has(url string) bool {
	if url == "" {
		return false
	}
	if _, ok := s[url]; ok {
		return true
	}
	_, ok := s[LegacyKey(url)]
	return ok
}

// LegacyKey is the hex SHA-1 of url, the form older state files store.
func LegacyKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Add records url; empty strings are ignored.
func (s SeenSet) Add(url string) {
	if url == "" {
		return
	}
	s[url] = struct{}{}
}

// Sorted returns the members in lexical order.
func (s SeenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
