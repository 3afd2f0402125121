package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testItem struct {
	Name  string
	Count int
}

func TestMemStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()

	if err := storage.Set(ctx, "k1", testItem{Name: "a", Count: 3}, 0); err != nil {
		t.Fatal(err)
	}
	var got testItem
	if err := storage.Get(ctx, "k1", &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "a" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}

	if err := storage.Delete(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
	if err := storage.Get(ctx, "k1", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := storage.Delete(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestMemStorageExpiry(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()

	if err := storage.Set(ctx, "k1", testItem{Name: "a"}, time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	var got testItem
	if err := storage.Get(ctx, "k1", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired entry, got %v", err)
	}

	if err := storage.Set(ctx, "k2", testItem{Name: "b"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := storage.Expire(ctx, "k2", time.Now().Add(-time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := storage.Get(ctx, "k2", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Expire in the past, got %v", err)
	}
}

func TestTypedStorePrefix(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()
	items := New[testItem](storage, "it:")

	if err := items.Set(ctx, "k1", testItem{Name: "a"}, 0); err != nil {
		t.Fatal(err)
	}
	got, err := items.Get(ctx, "k1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "a" {
		t.Errorf("got %+v", got)
	}

	// The prefix keeps typed stores from colliding on the shared backend.
	var raw testItem
	if err := storage.Get(ctx, "it:k1", &raw); err != nil {
		t.Errorf("expected prefixed key on backend, got %v", err)
	}
	if err := storage.Get(ctx, "k1", &raw); !errors.Is(err, ErrNotFound) {
		t.Errorf("unprefixed key must not exist, got %v", err)
	}

	other := New[testItem](storage, "ot:")
	if _, err := other.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stores with different prefixes must not share entries, got %v", err)
	}
}
