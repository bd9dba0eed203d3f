package tokenstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hien-duc/spendwise-go/pkg/errs"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "token"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if _, ok, err := store.Get(ctx); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v; want absent, nil", ok, err)
	}

	if err := store.Set(ctx, "tok_abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	token, ok, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || token != "tok_abc" {
		t.Fatalf("Get = %q, %v; want tok_abc, true", token, ok)
	}

	// Overwrite is allowed.
	if err := store.Set(ctx, "tok_def"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	token, _, _ = store.Get(ctx)
	if token != "tok_def" {
		t.Fatalf("Get after overwrite = %q, want tok_def", token)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx); ok {
		t.Fatal("token still present after Clear")
	}
}

func TestFileStoreClearIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "token"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear on empty store: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, _ := store.Get(ctx); ok {
		t.Fatal("new store should be empty")
	}
	if err := store.Set(ctx, "tok_abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	token, ok, _ := store.Get(ctx)
	if !ok || token != "tok_abc" {
		t.Fatalf("Get = %q, %v; want tok_abc, true", token, ok)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx); ok {
		t.Fatal("token still present after Clear")
	}
}

func TestMemoryStoreFailNext(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.FailNext = &errs.StorageError{Op: "set", Err: errors.New("disk full")}

	err := store.Set(ctx, "tok_abc")
	if !errs.IsStorage(err) {
		t.Fatalf("Set = %v, want StorageError", err)
	}

	// Failure is consumed; next op succeeds.
	if err := store.Set(ctx, "tok_abc"); err != nil {
		t.Fatalf("set after failure: %v", err)
	}
}
