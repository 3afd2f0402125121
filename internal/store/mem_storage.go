package store

import (
	"context"
	"reflect"
	"sync"
	"time"
)

type memEntry struct {
	val       any
	expiresAt time.Time // zero means no expiry
}

// MemStorage is an in-process Storage used when no Redis backend is
// configured, and by tests. Expired entries are dropped lazily on access.
type MemStorage struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

func (s *MemStorage) Get(ctx context.Context, key string, val any) error {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return ErrNotFound
	}

	dst := reflect.ValueOf(val)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return ErrNotFound
	}
	src := reflect.ValueOf(entry.val)
	if !src.Type().AssignableTo(dst.Elem().Type()) {
		return ErrNotFound
	}
	dst.Elem().Set(src)
	return nil
}

func (s *MemStorage) Set(ctx context.Context, key string, val any, expiresIn time.Duration) error {
	entry := memEntry{val: reflect.Indirect(reflect.ValueOf(val)).Interface()}
	if expiresIn > 0 {
		entry.expiresAt = time.Now().Add(expiresIn)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return ErrNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *MemStorage) Expire(ctx context.Context, key string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return ErrNotFound
	}
	entry.expiresAt = expiresAt
	s.entries[key] = entry
	return nil
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		entries: make(map[string]memEntry),
	}
}
