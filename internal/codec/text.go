package codec

import (
	"strings"

	"github.com/starford/murmur/internal/models"
)

// TextContentType is the MIME type of single-note exports.
const TextContentType = "text/plain"

var filenameReplacer = strings.NewReplacer("/", "-", `\`, "-", "\n", " ", "\r", " ", "\x00", "")

// NoteText returns the download name and body for exporting one note as a
// plain-text file.
func NoteText(n models.Note) (filename, body string) {
	name := strings.TrimSpace(filenameReplacer.Replace(n.Title))
	if name == "" {
		name = "note"
	}
	return name + ".txt", n.Content
}

// ShareText is the clipboard form of a note, used where no native share
// target is available.
func ShareText(n models.Note) string {
	return "Title: " + n.Title + "\n\nContent: " + n.Content
}
