package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/starford/murmur/internal/apperr"
)

// exerciseProvider runs the Provider contract against p.
func exerciseProvider(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()

	if _, err := p.Get(ctx, "notes"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get on empty slot: err = %v, want ErrNotFound", err)
	}
	if err := p.Set(ctx, "notes", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := p.Set(ctx, "notes", []byte("v2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := p.Get(ctx, "notes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("value = %q, want v2", got)
	}
	if _, err := p.Get(ctx, "other"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("keys are not isolated: err = %v", err)
	}
}

func TestMemoryProvider(t *testing.T) {
	exerciseProvider(t, NewMemory())
}

func TestFSProvider(t *testing.T) {
	exerciseProvider(t, tempFS(t))
}

func TestSQLiteProvider(t *testing.T) {
	f, err := os.CreateTemp("", "murmur-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	p, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	exerciseProvider(t, p)
}

func TestRedisProvider(t *testing.T) {
	mr := miniredis.RunT(t)

	p, err := DialRedis(context.Background(), mr.Addr(), "", 0, "murmur:")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	exerciseProvider(t, p)

	if !mr.Exists("murmur:notes") {
		t.Error("expected prefixed key murmur:notes")
	}
}

func TestRedisProvider_UnreachableServer(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	p := NewRedis(client, "")
	defer p.Close()

	_, err = p.Get(context.Background(), "notes")
	if err == nil || errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want a connection error", err)
	}
}
