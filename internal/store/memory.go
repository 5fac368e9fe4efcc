package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is a Store kept entirely in process memory. It backs unit
// tests and is the fallback the coordinator learns through when no durable
// backend is reachable.
type MemoryStore struct {
	mu        sync.RWMutex
	tables    map[Kind]map[string]float64
	snapshots map[string]map[string]float64 // "kind@name" -> table copy
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:    make(map[Kind]map[string]float64),
		snapshots: make(map[string]map[string]float64),
	}
}

func (s *MemoryStore) table(kind Kind) map[string]float64 {
	t, ok := s.tables[kind]
	if !ok {
		t = make(map[string]float64)
		s.tables[kind] = t
	}
	return t
}

// Get returns the stored value or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, kind Kind, key string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.tables[kind][key]
	if !ok {
		return 0, ErrNotFound
	}
	return v, nil
}

// Put stores a value.
func (s *MemoryStore) Put(_ context.Context, kind Kind, key string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table(kind)[key] = value
	return nil
}

// Increment adds delta to the stored value and returns the new value.
func (s *MemoryStore) Increment(_ context.Context, kind Kind, key string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(kind)
	t[key] += delta
	return t[key], nil
}

// Scan returns all entries of kind whose key starts with prefix.
func (s *MemoryStore) Scan(_ context.Context, kind Kind, prefix string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64)
	for k, v := range s.tables[kind] {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(_ context.Context, kind Kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables[kind], key)
	return nil
}

// DeleteAll clears a model's table.
func (s *MemoryStore) DeleteAll(_ context.Context, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, kind)
	return nil
}

// Snapshot copies the live table of kind into a named backup.
func (s *MemoryStore) Snapshot(_ context.Context, kind Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]float64, len(s.tables[kind]))
	for k, v := range s.tables[kind] {
		cp[k] = v
	}
	s.snapshots[snapshotID(kind, name)] = cp
	return nil
}

// Restore replaces the live table of kind with the named backup.
func (s *MemoryStore) Restore(_ context.Context, kind Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[snapshotID(kind, name)]
	if !ok {
		return fmt.Errorf("restore %s@%s: %w", kind, name, ErrNotFound)
	}
	cp := make(map[string]float64, len(snap))
	for k, v := range snap {
		cp[k] = v
	}
	s.tables[kind] = cp
	return nil
}

func snapshotID(kind Kind, name string) string {
	return string(kind) + "@" + name
}
