package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/log"
)

// manifest is the on-disk shape of a YAML catalog.
type manifest struct {
	Assets []Entry `yaml:"assets"`
}

// YAMLSource reads a catalog manifest from a filesystem. The manifest is
// parsed eagerly; Reload re-reads it, which the watcher uses for
// hot-reloading edited manifests.
type YAMLSource struct {
	fsys fs.FS
	file string

	mu      sync.RWMutex
	entries map[asset.Path]Entry
}

// NewYAMLSource parses the manifest at file inside fsys.
func NewYAMLSource(fsys fs.FS, file string) (*YAMLSource, error) {
	s := &YAMLSource{fsys: fsys, file: file}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the manifest, replacing the entry table.
// Invalid entries are skipped with a warning rather than failing the load.
func (s *YAMLSource) Reload() error {
	raw, err := fs.ReadFile(s.fsys, s.file)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", s.file, err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parse manifest %s: %w", s.file, err)
	}

	entries := make(map[asset.Path]Entry, len(m.Assets))
	for _, e := range m.Assets {
		if err := e.Validate(); err != nil {
			log.Warn(log.CatCatalog, "Skipping invalid manifest entry", "path", e.Path, "reason", err)
			continue
		}
		entries[e.Path] = e
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	log.Info(log.CatCatalog, "Loaded manifest", "file", s.file, "entries", len(entries))
	return nil
}

// Resolve returns the entry for the given path.
func (s *YAMLSource) Resolve(ctx context.Context, path asset.Path) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return e, nil
}

// List returns every entry, ordered by path.
func (s *YAMLSource) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
