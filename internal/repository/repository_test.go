package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/repository"
	"github.com/starford/murmur/internal/storage"
	"github.com/starford/murmur/internal/testutil"
)

func titles(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Title
	}
	return out
}

func TestAdd_AppendsInInsertionOrder(t *testing.T) {
	repo := testutil.Repository(t)
	ctx := context.Background()

	_, _ = repo.Add(ctx, models.Note{Title: "B", Content: "b", Timestamp: "2024-01-02T00:00:00Z"})
	_, _ = repo.Add(ctx, models.Note{Title: "A", Content: "a", Timestamp: "2024-01-01T00:00:00Z"})

	got := titles(repo.ListAll(ctx))
	if len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Errorf("ListAll = %v, want [B A]", got)
	}
}

func TestAdd_AssignsIDAndKeepsTimestamp(t *testing.T) {
	repo := testutil.Repository(t)
	n, err := repo.Add(context.Background(), models.Note{Title: "A", Content: "a", Timestamp: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if n.ID != "note-1" {
		t.Errorf("id = %q, want note-1", n.ID)
	}
	if n.Timestamp != "2024-01-01T00:00:00Z" {
		t.Errorf("timestamp rewritten to %q", n.Timestamp)
	}
}

func TestAdd_NoDeduplication(t *testing.T) {
	repo := testutil.Repository(t)
	ctx := context.Background()
	note := models.Note{Title: "A", Content: "a", Timestamp: "2024-01-01T00:00:00Z"}
	_, _ = repo.Add(ctx, note)
	_, _ = repo.Add(ctx, note)
	if got := len(repo.ListAll(ctx)); got != 2 {
		t.Errorf("len = %d, want 2", got)
	}
}

func TestAdd_RejectsEmptyContent(t *testing.T) {
	repo := testutil.Repository(t)
	ctx := context.Background()
	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := repo.Add(ctx, models.Note{Title: "A", Content: content})
		if !errors.Is(err, apperr.ErrEmptyContent) {
			t.Errorf("Add(%q) err = %v, want ErrEmptyContent", content, err)
		}
	}
	if got := len(repo.ListAll(ctx)); got != 0 {
		t.Errorf("empty-content note persisted (%d notes)", got)
	}
}

func TestCreate_StampsTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("CET", 3600))
	repo := repository.New(testutil.MemoryStore(t),
		repository.WithClock(func() time.Time { return now }),
		repository.WithLogger(testutil.Logger()),
	)
	n, err := repo.Create(context.Background(), "T", "body")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Timestamp != "2025-03-04T04:06:07.890Z" {
		t.Errorf("timestamp = %q", n.Timestamp)
	}
	if n.ID == "" {
		t.Error("expected generated id")
	}
}

func TestRemoveByTimestamp_FirstMatchWins(t *testing.T) {
	repo := testutil.Repository(t)
	ctx := context.Background()
	ts := "2024-01-01T00:00:00Z"
	_, _ = repo.Add(ctx, models.Note{Title: "first", Content: "1", Timestamp: ts})
	_, _ = repo.Add(ctx, models.Note{Title: "second", Content: "2", Timestamp: ts})

	n, removed, err := repo.RemoveByTimestamp(ctx, ts)
	if err != nil || !removed {
		t.Fatalf("RemoveByTimestamp = %v, %v", removed, err)
	}
	if n.Title != "first" {
		t.Errorf("removed note = %+v, want first", n)
	}
	got := titles(repo.ListAll(ctx))
	if len(got) != 1 || got[0] != "second" {
		t.Errorf("ListAll = %v, want [second]", got)
	}
}

func TestRemoveByTimestamp_AbsentIsNoop(t *testing.T) {
	repo := testutil.Repository(t)
	ctx := context.Background()
	_, _ = repo.Add(ctx, models.Note{Title: "A", Content: "a", Timestamp: "2024-01-01T00:00:00Z"})
	before := repo.ListAll(ctx)

	_, removed, err := repo.RemoveByTimestamp(ctx, "1999-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("RemoveByTimestamp: %v", err)
	}
	if removed {
		t.Error("reported removal of an absent timestamp")
	}
	after := repo.ListAll(ctx)
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("collection changed: %v -> %v", before, after)
	}
}

func TestRemoveByID(t *testing.T) {
	repo := testutil.Repository(t)
	ctx := context.Background()
	ts := "2024-01-01T00:00:00Z"
	_, _ = repo.Add(ctx, models.Note{Title: "first", Content: "1", Timestamp: ts})
	second, _ := repo.Add(ctx, models.Note{Title: "second", Content: "2", Timestamp: ts})

	n, removed, err := repo.RemoveByID(ctx, second.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveByID = %v, %v", removed, err)
	}
	if n.ID != second.ID {
		t.Errorf("removed note = %+v, want %s", n, second.ID)
	}
	got := titles(repo.ListAll(ctx))
	if len(got) != 1 || got[0] != "first" {
		t.Errorf("ListAll = %v, want [first]", got)
	}

	if _, removed, _ := repo.RemoveByID(ctx, ""); removed {
		t.Error("empty id must not match legacy notes")
	}
}

func TestAddAll_SingleWriteSkipsBlank(t *testing.T) {
	repo := testutil.Repository(t)
	ctx := context.Background()
	n, err := repo.AddAll(ctx, []models.Note{
		{Title: "A", Content: "a", Timestamp: "2024-01-01T00:00:00Z"},
		{Title: "blank", Content: " "},
		{Title: "B", Content: "b", Timestamp: "2024-01-02T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("AddAll: %v", err)
	}
	if n != 2 {
		t.Errorf("added = %d, want 2", n)
	}
	got := titles(repo.ListAll(ctx))
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("ListAll = %v", got)
	}
}

func TestFind(t *testing.T) {
	repo := testutil.Repository(t)
	ctx := context.Background()
	n, _ := repo.Create(ctx, "A", "a")
	got, err := repo.Find(ctx, n.ID)
	if err != nil || got.Title != "A" {
		t.Errorf("Find = %+v, %v", got, err)
	}
	if _, err := repo.Find(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRepository_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	first := repository.New(storage.NewStore(mem, "notes", testutil.Logger()))
	_, _ = first.Create(ctx, "A", "a")

	second := repository.New(storage.NewStore(mem, "notes", testutil.Logger()))
	if got := len(second.ListAll(ctx)); got != 1 {
		t.Errorf("len = %d, want 1", got)
	}
}

func TestRepository_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	repo := repository.New(testutil.SQLiteStore(t), repository.WithLogger(testutil.Logger()))
	a, _ := repo.Create(ctx, "A", "a")
	_, _ = repo.Create(ctx, "B", "b")
	if _, _, err := repo.RemoveByTimestamp(ctx, a.Timestamp); err != nil {
		t.Fatalf("RemoveByTimestamp: %v", err)
	}
	got := titles(repo.ListAll(ctx))
	if len(got) != 1 {
		t.Errorf("ListAll = %v", got)
	}
}
