// Package catalog provides the asset catalog the streaming service
// resolves soft paths against: a source interface plus YAML, SQLite, and
// in-memory implementations, and a watcher that signals manifest changes.
package catalog

import (
	"context"
	"errors"

	"github.com/zjrosen/cachebox/internal/asset"
)

var (
	// ErrNotFound is returned when a path has no catalog entry.
	ErrNotFound = errors.New("asset not found in catalog")
	// ErrInvalidEntry is returned for entries that fail validation.
	ErrInvalidEntry = errors.New("invalid catalog entry")
)

// Kind discriminates what a catalog entry resolves to.
type Kind string

const (
	// KindObject resolves to a generic resource object.
	KindObject Kind = "object"
	// KindClass resolves to a class.
	KindClass Kind = "class"
)

// Entry describes one asset in the catalog.
type Entry struct {
	Path asset.Path `yaml:"path"`
	Kind Kind       `yaml:"kind"`
	// Name is the object name, or the class name for KindClass.
	Name string `yaml:"name"`
	// Class names the class of a KindObject entry. Optional.
	Class string `yaml:"class,omitempty"`
	// Parent names the parent class of a KindClass entry. Optional.
	Parent string `yaml:"parent,omitempty"`
	// Payload is the opaque resource payload of a KindObject entry.
	Payload []byte `yaml:"payload,omitempty"`
}

// Validate checks the entry for structural problems.
func (e Entry) Validate() error {
	if e.Path.IsNull() {
		return errors.New("entry path is empty")
	}
	if e.Kind != KindObject && e.Kind != KindClass {
		return errors.New("entry kind must be object or class")
	}
	if e.Name == "" {
		return errors.New("entry name is empty")
	}
	return nil
}

// Source resolves asset paths to catalog entries.
type Source interface {
	Resolve(ctx context.Context, path asset.Path) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
}
