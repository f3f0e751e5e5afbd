// Package search filters a note collection by substring and orders it by
// recency for display.
package search

import (
	"slices"
	"strings"
	"time"

	"github.com/starford/murmur/internal/models"
)

// Query returns the notes whose title or content contains term
// (case-insensitively), most recent first. An empty term keeps every note.
// Notes with equal timestamps keep their input order. The input is not
// modified.
func Query(notes []models.Note, term string) []models.Note {
	out := Filter(notes, term)
	SortByRecency(out)
	return out
}

// Filter returns a new slice with the notes matching term, in input order.
func Filter(notes []models.Note, term string) []models.Note {
	out := make([]models.Note, 0, len(notes))
	if term == "" {
		return append(out, notes...)
	}
	needle := strings.ToLower(term)
	for _, n := range notes {
		if Matches(n, needle) {
			out = append(out, n)
		}
	}
	return out
}

// Matches reports whether the lowercase needle occurs in the note's title or
// content.
func Matches(n models.Note, needle string) bool {
	return strings.Contains(strings.ToLower(n.Title), needle) ||
		strings.Contains(strings.ToLower(n.Content), needle)
}

// SortByRecency stably sorts notes in place by timestamp, newest first.
// Timestamps are read with models.ParseTimestamp, so zone-less date-times
// count as local time. Timestamps that do not parse order as the zero
// instant.
func SortByRecency(notes []models.Note) {
	keys := make(map[string]time.Time, len(notes))
	instant := func(ts string) time.Time {
		if t, ok := keys[ts]; ok {
			return t
		}
		t, err := models.ParseTimestamp(ts)
		if err != nil {
			t = time.Time{}
		}
		keys[ts] = t
		return t
	}
	slices.SortStableFunc(notes, func(a, b models.Note) int {
		return instant(b.Timestamp).Compare(instant(a.Timestamp))
	})
}
