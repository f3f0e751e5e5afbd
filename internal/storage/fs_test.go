package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/murmur/internal/apperr"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestFS_SetAndGet(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	value := []byte(`[{"timestamp":"2024-01-01T00:00:00.000Z","title":"A","content":"a"}]`)
	if err := s.Set(ctx, "notes", value); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "notes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("value mismatch: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "notes.json")); err != nil {
		t.Errorf("slot file missing: %v", err)
	}
}

func TestFS_GetMissing(t *testing.T) {
	s := tempFS(t)
	_, err := s.Get(context.Background(), "notes")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFS_KeyTraversalBlocked(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()

	cases := []string{
		"../outside",
		"a/b",
		`a\b`,
		"..",
		"",
	}
	for _, k := range cases {
		if _, err := s.Get(ctx, k); err == nil || errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("expected key error for %q, got %v", k, err)
		}
		if err := s.Set(ctx, k, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", k)
		}
	}
}

func TestFS_AtomicOverwrite(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	_ = s.Set(ctx, "notes", []byte("[]"))

	updated := []byte(`[{"timestamp":"t","title":"x","content":"y"}]`)
	if err := s.Set(ctx, "notes", updated); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := s.Get(ctx, "notes")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".murmur-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/murmur-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "murmur-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
