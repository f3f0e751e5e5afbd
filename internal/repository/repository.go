// Package repository owns the note collection: appending, removing and
// listing notes over an injected storage.Store.
package repository

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/storage"
)

// Repository performs full read-modify-write cycles against a Store.
// Mutations are serialized within the process; nothing coordinates
// separate processes sharing the same slot.
type Repository struct {
	store  *storage.Store
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the time source used to stamp new notes.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator sets the generator for note IDs.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) {
		r.newID = gen
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// New returns a Repository over store.
func New(store *storage.Store, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stamps a new note with the current time and appends it.
func (r *Repository) Create(ctx context.Context, title, content string) (models.Note, error) {
	return r.Add(ctx, models.Note{
		Timestamp: models.FormatTimestamp(r.now()),
		Title:     title,
		Content:   content,
	})
}

// Add appends note to the collection. Notes whose content is blank are
// rejected with apperr.ErrEmptyContent. Duplicates are kept.
func (r *Repository) Add(ctx context.Context, note models.Note) (models.Note, error) {
	if strings.TrimSpace(note.Content) == "" {
		return models.Note{}, apperr.ErrEmptyContent
	}
	if note.Timestamp == "" {
		note.Timestamp = models.FormatTimestamp(r.now())
	}
	if note.ID == "" {
		note.ID = r.newID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	notes := r.store.Load(ctx)
	notes = append(notes, note)
	if err := r.store.Save(ctx, notes); err != nil {
		return models.Note{}, err
	}
	r.logger.Debug("repository: note added",
		slog.String("id", note.ID),
		slog.String("timestamp", note.Timestamp))
	return note, nil
}

// AddAll appends every note with non-blank content in a single write and
// returns how many were appended.
func (r *Repository) AddAll(ctx context.Context, batch []models.Note) (int, error) {
	valid := make([]models.Note, 0, len(batch))
	for _, n := range batch {
		if strings.TrimSpace(n.Content) == "" {
			continue
		}
		if n.Timestamp == "" {
			n.Timestamp = models.FormatTimestamp(r.now())
		}
		if n.ID == "" {
			n.ID = r.newID()
		}
		valid = append(valid, n)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	notes := append(r.store.Load(ctx), valid...)
	if err := r.store.Save(ctx, notes); err != nil {
		return 0, err
	}
	return len(valid), nil
}

// RemoveByTimestamp removes the first note whose timestamp equals ts and
// returns it. ok is false when nothing matched; an absent timestamp is a
// no-op.
func (r *Repository) RemoveByTimestamp(ctx context.Context, ts string) (removed models.Note, ok bool, err error) {
	return r.removeFirst(ctx, func(n models.Note) bool { return n.Timestamp == ts })
}

// RemoveByID removes the note with the given ID, if any, and returns it.
func (r *Repository) RemoveByID(ctx context.Context, id string) (removed models.Note, ok bool, err error) {
	if id == "" {
		return models.Note{}, false, nil
	}
	return r.removeFirst(ctx, func(n models.Note) bool { return n.ID == id })
}

func (r *Repository) removeFirst(ctx context.Context, match func(models.Note) bool) (models.Note, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	notes := r.store.Load(ctx)
	for i, n := range notes {
		if !match(n) {
			continue
		}
		notes = append(notes[:i], notes[i+1:]...)
		if err := r.store.Save(ctx, notes); err != nil {
			return models.Note{}, false, err
		}
		r.logger.Debug("repository: note removed",
			slog.String("id", n.ID),
			slog.String("timestamp", n.Timestamp))
		return n, true, nil
	}
	return models.Note{}, false, nil
}

// ListAll returns the full collection in storage order.
func (r *Repository) ListAll(ctx context.Context) []models.Note {
	return r.store.Load(ctx)
}

// Find returns the first note with the given ID.
func (r *Repository) Find(ctx context.Context, id string) (models.Note, error) {
	for _, n := range r.store.Load(ctx) {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Note{}, apperr.ErrNotFound
}
