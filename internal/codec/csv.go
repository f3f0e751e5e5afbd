// Package codec converts note collections to and from their interchange
// forms: the CSV export file, share-link payloads and plain-text exports.
package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/starford/murmur/internal/models"
)

// Format selects the CSV dialect.
type Format string

const (
	// FormatLegacy wraps every field in double quotes without escaping
	// anything inside. Values containing commas in the title, or line
	// breaks anywhere, do not survive a round trip.
	FormatLegacy Format = "legacy"
	// FormatRFC4180 quotes and escapes fields per RFC 4180.
	FormatRFC4180 Format = "rfc4180"
)

// CSVContentType is the MIME type of exported files.
const CSVContentType = "text/csv"

var header = []string{"timestamp", "title", "content"}

// ImportResult is the outcome of parsing interchange text.
type ImportResult struct {
	Notes   []models.Note
	Skipped int // malformed rows; blank lines are not counted
}

// CSV exports and imports note collections.
type CSV struct {
	format Format
}

// NewCSV returns a codec for the given format. Unknown formats fall back to
// FormatLegacy.
func NewCSV(format Format) *CSV {
	if format != FormatRFC4180 {
		format = FormatLegacy
	}
	return &CSV{format: format}
}

// Format returns the dialect in use.
func (c *CSV) Format() Format { return c.format }

// Export renders notes, in the order given, as interchange text.
func (c *CSV) Export(notes []models.Note) string {
	if c.format == FormatRFC4180 {
		return exportRFC4180(notes)
	}
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	for i, n := range notes {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, `"%s","%s","%s"`, n.Timestamp, n.Title, n.Content)
	}
	return b.String()
}

// Import parses interchange text. The first line is a header and is
// discarded. Rows without three non-empty fields are skipped.
func (c *CSV) Import(text string) ImportResult {
	if c.format == FormatRFC4180 {
		return importRFC4180(text)
	}
	res := ImportResult{Notes: []models.Note{}}
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return res
	}
	for _, row := range lines[1:] {
		row = strings.TrimSuffix(row, "\r")
		if strings.TrimSpace(row) == "" {
			continue
		}
		parts := strings.SplitN(row, ",", 3)
		if len(parts) < 3 {
			res.Skipped++
			continue
		}
		n, ok := noteFromFields(unquote(parts[0]), unquote(parts[1]), unquote(parts[2]))
		if !ok {
			res.Skipped++
			continue
		}
		res.Notes = append(res.Notes, n)
	}
	return res
}

func unquote(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

func noteFromFields(ts, title, content string) (models.Note, bool) {
	if ts == "" || title == "" || content == "" {
		return models.Note{}, false
	}
	return models.Note{Timestamp: ts, Title: title, Content: content}, true
}

func exportRFC4180(notes []models.Note) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(header)
	for _, n := range notes {
		_ = w.Write([]string{n.Timestamp, n.Title, n.Content})
	}
	w.Flush()
	return b.String()
}

func importRFC4180(text string) ImportResult {
	res := ImportResult{Notes: []models.Note{}}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if first {
			first = false
			continue
		}
		if err != nil || len(rec) < 3 {
			res.Skipped++
			continue
		}
		n, ok := noteFromFields(rec[0], rec[1], rec[2])
		if !ok {
			res.Skipped++
			continue
		}
		res.Notes = append(res.Notes, n)
	}
	return res
}

// ExportFilename names an export file after t in its own location:
// notes-YYYYMMDD-HHMMSS.csv.
func ExportFilename(t time.Time) string {
	return t.Format("notes-20060102-150405") + ".csv"
}
