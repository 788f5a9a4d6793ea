// Package match scores candidate search results against a requested
// title and artist. Upstream metadata is noisy: titles carry remaster and
// remix suffixes, artist lists are missing or formatted inconsistently,
// so matching is deliberately forgiving.
package match

import (
	"regexp"
	"strings"

	"github.com/doctorbhh/ragam/internal/domain"
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Normalize lower-cases s, strips every character that is not a word
// character or whitespace, and trims the result. Idempotent.
func Normalize(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(s), ""))
}

// NamesOverlap reports whether one normalized name contains the other.
// This covers exact matches, truncated or expanded titles such as
// "Song (Remastered)" vs "Song", and dropped leading articles such as
// "The Weeknd" vs "Weeknd".
func NamesOverlap(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// SelectBestCandidate returns the candidate that best matches the
// requested title and artist, or nil when candidates is empty.
//
// Candidates are considered in provider-returned order. The first whose
// title overlaps the query title and whose artists overlap the query
// artist wins; an empty artist query is no constraint, never a forced
// mismatch. When no candidate satisfies both, the first title-only match
// wins, and failing that the first candidate in the list. Title is the
// primary signal; artist only disambiguates.
func SelectBestCandidate(candidates []domain.SearchCandidate, title, artist string) *domain.SearchCandidate {
	if len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		c := &candidates[i]
		if !NamesOverlap(c.Name, title) {
			continue
		}
		if artist == "" || anyArtistOverlaps(c, artist) {
			return c
		}
	}
	for i := range candidates {
		if NamesOverlap(candidates[i].Name, title) {
			return &candidates[i]
		}
	}
	return &candidates[0]
}

func anyArtistOverlaps(c *domain.SearchCandidate, artist string) bool {
	for _, a := range c.Artists() {
		if NamesOverlap(a.Name, artist) {
			return true
		}
	}
	return false
}
