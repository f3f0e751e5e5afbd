// Package testutil provides shared test helpers for stores and repositories.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/murmur/internal/repository"
	"github.com/starford/murmur/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MemoryStore returns a Store backed by a fresh in-memory provider.
func MemoryStore(t *testing.T) *storage.Store {
	t.Helper()
	return storage.NewStore(storage.NewMemory(), storage.DefaultKey, Logger())
}

// FSStore returns a Store backed by a temporary data directory.
func FSStore(t *testing.T) (*storage.FS, *storage.Store) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs, storage.NewStore(fs, storage.DefaultKey, Logger())
}

// SQLiteStore returns a Store backed by a temporary SQLite database that is
// automatically cleaned up.
func SQLiteStore(t *testing.T) *storage.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "murmur-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewStore(db, storage.DefaultKey, Logger())
}

// Clock returns a time source that starts at start and advances by step on
// every call.
func Clock(start time.Time, step time.Duration) func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)-1) * step)
	}
}

// SequentialIDs returns an ID generator yielding note-1, note-2, ...
func SequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("note-%d", n.Add(1))
	}
}

// Repository returns a Repository over an in-memory store with a
// deterministic clock and ID generator.
func Repository(t *testing.T) *repository.Repository {
	t.Helper()
	return repository.New(MemoryStore(t),
		repository.WithClock(Clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)),
		repository.WithIDGenerator(SequentialIDs()),
		repository.WithLogger(Logger()),
	)
}
