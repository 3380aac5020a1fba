package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zjrosen/cachebox/internal/asset"
)

// MapSource is an in-memory source for tests and the static demo catalog.
type MapSource struct {
	mu      sync.RWMutex
	entries map[asset.Path]Entry
}

// NewMapSource creates a source holding the given entries.
// Entries that fail validation are dropped.
func NewMapSource(entries ...Entry) *MapSource {
	s := &MapSource{entries: make(map[asset.Path]Entry, len(entries))}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			continue
		}
		s.entries[e.Path] = e
	}
	return s
}

// Put adds or replaces an entry.
func (s *MapSource) Put(e Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Path] = e
	return nil
}

// Remove deletes an entry by path.
func (s *MapSource) Remove(path asset.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, path)
}

// Resolve returns the entry for the given path.
func (s *MapSource) Resolve(ctx context.Context, path asset.Path) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return e, nil
}

// List returns every entry, ordered by path.
func (s *MapSource) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
