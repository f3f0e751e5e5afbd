package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/checksum"
	"github.com/starford/murmur/internal/models"
)

// DefaultKey is the slot the note collection is stored under.
const DefaultKey = "notes"

// Store reads and writes the whole note collection as one JSON array in a
// single Provider slot.
type Store struct {
	provider Provider
	key      string
	logger   *slog.Logger

	mu   sync.Mutex
	last string // checksum of the last blob this Store wrote or the watcher reported
}

// NewStore returns a Store over the given slot. An empty key means DefaultKey.
func NewStore(provider Provider, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{provider: provider, key: key, logger: logger}
}

// Key returns the slot name.
func (s *Store) Key() string { return s.key }

// Load returns the stored collection in storage order. A missing, unreadable
// or unparseable slot yields an empty collection.
func (s *Store) Load(ctx context.Context) []models.Note {
	data, err := s.provider.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("store: load failed",
				slog.String("key", s.key),
				slog.String("error", err.Error()))
		}
		return []models.Note{}
	}

	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		s.logger.Warn("store: slot is not a note array, treating as empty",
			slog.String("key", s.key),
			slog.String("error", err.Error()))
		return []models.Note{}
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes
}

// Save replaces the stored collection with notes.
func (s *Store) Save(ctx context.Context, notes []models.Note) error {
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	if err := s.provider.Set(ctx, s.key, data); err != nil {
		return err
	}
	s.remember(data)
	return nil
}

// Seen reports whether data matches the last blob this Store wrote or the
// watcher already reported. Reads never count.
func (s *Store) Seen(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last != "" && s.last == checksum.Sum(data)
}

func (s *Store) remember(data []byte) {
	sum := checksum.Sum(data)
	s.mu.Lock()
	s.last = sum
	s.mu.Unlock()
}
