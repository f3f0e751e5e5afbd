// Package models defines the domain types for murmur.
package models

import "time"

// TimestampLayout matches the ISO-8601 form produced by JavaScript's
// Date.toISOString, so collections written by the browser widget compare
// byte-for-byte with ours.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Note is a single persisted note. Timestamp doubles as the legacy identity
// of the note inside the collection; ID is the collision-free one.
type Note struct {
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// Draft is an unsaved title/content pair, as carried by share links and the
// composition buffer.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Zone-less ISO-8601 forms accepted by ParseTimestamp.
const (
	localDateTimeLayout = "2006-01-02T15:04:05.999999999"
	localMinuteLayout   = "2006-01-02T15:04"
	dateLayout          = "2006-01-02"
)

// ParseTimestamp parses an ISO-8601 instant, with or without fractional
// seconds. A date-time without a zone is local time; a bare date is UTC
// midnight.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range []string{localDateTimeLayout, localMinuteLayout} {
		if lt, lerr := time.ParseInLocation(layout, s, time.Local); lerr == nil {
			return lt, nil
		}
	}
	if dt, derr := time.Parse(dateLayout, s); derr == nil {
		return dt, nil
	}
	return time.Time{}, err
}
