package noteservice

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/codec"
	"github.com/starford/murmur/internal/compose"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/repository"
	"github.com/starford/murmur/internal/search"
)

// Event kinds passed to a Notifier.
const (
	KindCreated  = "created"
	KindDeleted  = "deleted"
	KindImported = "imported"
	KindChanged  = "changed"
)

// Notifier is told about every change to the collection. note is the note
// created or deleted, and zero for collection-wide kinds.
type Notifier interface {
	PublishNoteEvent(kind string, note models.Note)
}

// Service is the surface the HTTP API, the MCP server and the CLI talk to.
type Service struct {
	repo     *repository.Repository
	csv      *codec.CSV
	shareURL string
	now      func() time.Time
	logger   *slog.Logger
	notifier Notifier
}

// Option configures a Service.
type Option func(*Service)

// WithFormat sets the CSV dialect used by Export and Import.
func WithFormat(f codec.Format) Option {
	return func(s *Service) { s.csv = codec.NewCSV(f) }
}

// WithShareBaseURL sets the URL share links are built on.
func WithShareBaseURL(base string) Option {
	return func(s *Service) { s.shareURL = base }
}

// WithNotifier registers n for change events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the time source used for export filenames.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new note service.
func NewService(repo *repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		csv:      codec.NewCSV(codec.FormatLegacy),
		shareURL: "http://localhost:8080/",
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNotifier replaces the notifier after construction.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// ListAll returns every note in storage order.
func (s *Service) ListAll(ctx context.Context) []models.Note {
	return s.repo.ListAll(ctx)
}

// Query returns the notes matching term, most recent first.
func (s *Service) Query(ctx context.Context, term string) []models.Note {
	return search.Query(s.repo.ListAll(ctx), term)
}

// Find returns the note with the given ID.
func (s *Service) Find(ctx context.Context, id string) (models.Note, error) {
	return s.repo.Find(ctx, id)
}

// Add saves a new note. A blank title is derived from the content.
func (s *Service) Add(ctx context.Context, title, content string) (models.Note, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if content == "" {
		return models.Note{}, apperr.ErrEmptyContent
	}
	if title == "" {
		title = compose.DeriveTitle(content)
	}
	n, err := s.repo.Create(ctx, title, content)
	if err != nil {
		return models.Note{}, err
	}
	s.notify(KindCreated, n)
	return n, nil
}

// Create implements compose.Creator so a Composer can save through the
// service and its notifier.
func (s *Service) Create(ctx context.Context, title, content string) (models.Note, error) {
	return s.Add(ctx, title, content)
}

// RemoveByTimestamp deletes the first note with the given timestamp.
func (s *Service) RemoveByTimestamp(ctx context.Context, ts string) (bool, error) {
	n, ok, err := s.repo.RemoveByTimestamp(ctx, ts)
	if err != nil {
		return false, err
	}
	if ok {
		s.notify(KindDeleted, n)
	}
	return ok, nil
}

// RemoveByID deletes the note with the given ID.
func (s *Service) RemoveByID(ctx context.Context, id string) (bool, error) {
	n, ok, err := s.repo.RemoveByID(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.notify(KindDeleted, n)
	}
	return ok, nil
}

// Export renders the whole collection. An empty collection yields
// apperr.ErrNoNotes.
func (s *Service) Export(ctx context.Context) (filename, body string, err error) {
	notes := s.repo.ListAll(ctx)
	if len(notes) == 0 {
		return "", "", apperr.ErrNoNotes
	}
	return codec.ExportFilename(s.now()), s.csv.Export(notes), nil
}

// Import parses interchange text and appends every well-formed row.
func (s *Service) Import(ctx context.Context, text string) (added, skipped int, err error) {
	res := s.csv.Import(text)
	added, err = s.repo.AddAll(ctx, res.Notes)
	if err != nil {
		return 0, res.Skipped, err
	}
	skipped = res.Skipped + len(res.Notes) - added
	if skipped > 0 {
		s.logger.Warn("noteservice: import skipped rows",
			slog.Int("added", added),
			slog.Int("skipped", skipped))
	}
	if added > 0 {
		s.notify(KindImported, models.Note{})
	}
	return added, skipped, nil
}

// EncodeShareLink returns the share payload for a draft.
func (s *Service) EncodeShareLink(d models.Draft) (string, error) {
	return codec.EncodeShareLink(d)
}

// DecodeShareLink decodes a share payload. Malformed payloads are logged
// and reported with ok=false.
func (s *Service) DecodeShareLink(payload string) (models.Draft, bool) {
	d, err := codec.DecodeShareLink(payload)
	if err != nil {
		s.logger.Warn("noteservice: invalid share link", slog.String("error", err.Error()))
		return models.Draft{}, false
	}
	return d, true
}

// ShareURL returns a full link that opens the composer prefilled with d.
func (s *Service) ShareURL(d models.Draft) (string, error) {
	return codec.ShareURL(s.shareURL, d)
}

// ExternalChange reports a write to the slot made by another process.
func (s *Service) ExternalChange(key string) {
	s.logger.Info("noteservice: notes changed externally", slog.String("key", key))
	s.notify(KindChanged, models.Note{})
}

func (s *Service) notify(kind string, n models.Note) {
	if s.notifier != nil {
		s.notifier.PublishNoteEvent(kind, n)
	}
}
