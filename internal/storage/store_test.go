package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/murmur/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_LoadMissingSlot(t *testing.T) {
	s := NewStore(NewMemory(), "", quietLogger())
	notes := s.Load(context.Background())
	if notes == nil || len(notes) != 0 {
		t.Errorf("Load = %#v, want empty non-nil slice", notes)
	}
	if s.Key() != DefaultKey {
		t.Errorf("key = %q, want %q", s.Key(), DefaultKey)
	}
}

func TestStore_LoadCorruptSlot(t *testing.T) {
	ctx := context.Background()
	cases := []string{
		"{not json",
		`{"timestamp":"x"}`,
		"42",
		"",
	}
	for _, raw := range cases {
		mem := NewMemory()
		_ = mem.Set(ctx, "notes", []byte(raw))
		s := NewStore(mem, "notes", quietLogger())
		if got := s.Load(ctx); len(got) != 0 {
			t.Errorf("Load(%q) = %v, want empty", raw, got)
		}
	}
}

func TestStore_LoadNullSlot(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	_ = mem.Set(ctx, "notes", []byte("null"))
	got := NewStore(mem, "notes", quietLogger()).Load(ctx)
	if got == nil || len(got) != 0 {
		t.Errorf("Load(null) = %#v, want empty non-nil slice", got)
	}
}

func TestStore_SaveReplacesCollection(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory(), "notes", quietLogger())

	first := []models.Note{
		{Timestamp: "2024-01-01T00:00:00.000Z", Title: "A", Content: "a"},
		{Timestamp: "2024-01-02T00:00:00.000Z", Title: "B", Content: "b"},
	}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, first[1:]); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := s.Load(ctx)
	if len(got) != 1 || got[0].Title != "B" {
		t.Errorf("Load = %v, want [B]", got)
	}
}

func TestStore_ReadsLegacyLayout(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	_ = mem.Set(ctx, "notes", []byte(`[{"title":"A","content":"hello","timestamp":"2024-01-01T00:00:00.000Z"}]`))

	got := NewStore(mem, "notes", quietLogger()).Load(ctx)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].ID != "" || got[0].Title != "A" || got[0].Content != "hello" {
		t.Errorf("note = %+v", got[0])
	}
}

func TestStore_SaveNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	s := NewStore(mem, "notes", quietLogger())
	if err := s.Save(ctx, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, _ := mem.Get(ctx, "notes")
	if string(raw) != "[]" {
		t.Errorf("raw = %q, want []", raw)
	}
}

func TestStore_Seen(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	s := NewStore(mem, "notes", quietLogger())
	_ = s.Save(ctx, []models.Note{{Timestamp: "t", Title: "x", Content: "y"}})

	raw, _ := mem.Get(ctx, "notes")
	if !s.Seen(raw) {
		t.Error("own write should be seen")
	}
	if s.Seen([]byte("[]")) {
		t.Error("foreign content should not be seen")
	}
}

func TestWatch_ReportsExternalWrites(t *testing.T) {
	fs := tempFS(t)
	s := NewStore(fs, "notes", quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	go Watch(ctx, fs, s, quietLogger(), func(key string) { changed <- key })
	time.Sleep(100 * time.Millisecond)

	// Our own write is not reported.
	if err := s.Save(ctx, []models.Note{{Timestamp: "t1", Title: "a", Content: "a"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	select {
	case k := <-changed:
		t.Fatalf("own write reported as external change (%s)", k)
	case <-time.After(500 * time.Millisecond):
	}

	// Another writer replaces the file.
	slot, _ := fs.SlotPath("notes")
	if err := os.WriteFile(slot, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case k := <-changed:
		if k != "notes" {
			t.Errorf("key = %q", k)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("external write not reported")
	}
}

func TestStore_LoadDoesNotMarkSeen(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	raw := []byte(`[{"timestamp":"t","title":"x","content":"y"}]`)
	_ = mem.Set(ctx, "notes", raw)
	s := NewStore(mem, "notes", quietLogger())

	if got := s.Load(ctx); len(got) != 1 {
		t.Fatalf("Load = %v", got)
	}
	if s.Seen(raw) {
		t.Error("content that was only read should not be seen")
	}
}

func TestWatch_ReadDuringDebounceStillReports(t *testing.T) {
	fs := tempFS(t)
	s := NewStore(fs, "notes", quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	go Watch(ctx, fs, s, quietLogger(), func(key string) { changed <- key })
	time.Sleep(100 * time.Millisecond)

	if err := s.Save(ctx, []models.Note{{Timestamp: "t1", Title: "a", Content: "a"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	slot, _ := fs.SlotPath("notes")
	if err := os.WriteFile(slot, []byte(`[{"timestamp":"t2","title":"b","content":"b"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	// A reader picks up the foreign content before the watcher settles.
	if got := s.Load(ctx); len(got) != 1 || got[0].Title != "b" {
		t.Fatalf("Load = %v", got)
	}

	select {
	case k := <-changed:
		if k != "notes" {
			t.Errorf("key = %q", k)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("external write not reported after a concurrent read")
	}
}
