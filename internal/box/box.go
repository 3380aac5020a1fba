// Package box implements the resource lifecycle registry: a box that
// records every object it created or loaded and guarantees all of them
// can be torn down or released together, individually or in bulk.
package box

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/log"
	"github.com/zjrosen/cachebox/internal/memory"
	"github.com/zjrosen/cachebox/internal/streaming"
	"github.com/zjrosen/cachebox/internal/world"
)

var (
	// ErrBoxDestroyed is returned when operating on a torn-down box.
	// Doing so is a caller contract violation, not a recoverable state.
	ErrBoxDestroyed = errors.New("box has been destroyed")
	// ErrNoStream is returned when constructing a box without a streaming manager.
	ErrNoStream = errors.New("box requires a streaming manager")
	// ErrNoWorld is returned by actor/widget creation when the box has no world.
	ErrNoWorld = errors.New("box has no world")
	// ErrClassMismatch is returned when a resolved or spawned class does
	// not extend the expected base class.
	ErrClassMismatch = errors.New("class does not extend the expected base")
	// ErrNotAClass is returned when a class path resolves to a non-class asset.
	ErrNotAClass = errors.New("path did not resolve to a class")
)

// category is the teardown policy of a created object, decided once at
// creation time instead of re-deriving it on every destroy.
type category int

const (
	categoryGeneric category = iota
	categoryWidget
	categoryActor
)

// created pairs a tracked object with its teardown category.
type created struct {
	obj asset.Object
	cat category
}

// Config holds the collaborators a box operates against.
type Config struct {
	// Owner names the box owner in log lines.
	Owner string
	// Stream resolves soft references. Required.
	Stream *streaming.Manager
	// World creates actors and widgets. Optional; creation operations
	// needing it fail with ErrNoWorld when absent.
	World world.World
	// Reclaimer handles deferred disposal. A fresh one is created when nil.
	Reclaimer *memory.Reclaimer
}

// Box centrally tracks every object it created or loaded. It owns four
// disjoint membership sets: created objects, loaded objects, and the soft
// object/class references kept alongside loaded assets for unloading.
//
// A box is meant to be driven by one logical owner. The internal mutex
// exists so async completion closures arriving from the streaming
// manager's goroutines are safe, not to promise concurrent mutation from
// many callers.
type Box struct {
	id        string
	owner     string
	stream    *streaming.Manager
	world     world.World
	reclaimer *memory.Reclaimer
	tracer    trace.Tracer

	mu          sync.Mutex
	created     map[asset.ID]created
	loaded      map[asset.ID]asset.Object
	softObjects map[asset.Path]*asset.SoftObjectRef
	softClasses map[asset.Path]*asset.SoftClassRef

	destroyed atomic.Bool
}

// New creates a box. The returned box must eventually be torn down with
// DestroyBox by its owner.
func New(cfg Config) (*Box, error) {
	if cfg.Stream == nil {
		return nil, ErrNoStream
	}
	if cfg.Reclaimer == nil {
		cfg.Reclaimer = memory.NewReclaimer()
	}

	b := &Box{
		id:          uuid.NewString()[:8],
		owner:       cfg.Owner,
		stream:      cfg.Stream,
		world:       cfg.World,
		reclaimer:   cfg.Reclaimer,
		tracer:      otel.Tracer("cachebox/box"),
		created:     make(map[asset.ID]created),
		loaded:      make(map[asset.ID]asset.Object),
		softObjects: make(map[asset.Path]*asset.SoftObjectRef),
		softClasses: make(map[asset.Path]*asset.SoftClassRef),
	}
	log.Info(log.CatBox, "Created box", "box", b.DebugID())
	return b, nil
}

// DebugID identifies the box and its owner in log lines.
func (b *Box) DebugID() string {
	if b.owner != "" {
		return fmt.Sprintf("owner=%s box=%s", b.owner, b.id)
	}
	return "box=" + b.id
}

// Destroyed reports whether DestroyBox has completed teardown.
func (b *Box) Destroyed() bool {
	return b.destroyed.Load()
}

// Reclaimer returns the deferred-reclamation queue the box disposes into.
func (b *Box) Reclaimer() *memory.Reclaimer {
	return b.reclaimer
}

// CreatedCount returns the size of the created set.
func (b *Box) CreatedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.created)
}

// LoadedCount returns the size of the loaded set.
func (b *Box) LoadedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.loaded)
}

// SoftObjectCount returns the number of tracked soft object references.
func (b *Box) SoftObjectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.softObjects)
}

// SoftClassCount returns the number of tracked soft class references.
func (b *Box) SoftClassCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.softClasses)
}

// track adds an object to the created set with its teardown category.
func (b *Box) track(obj asset.Object, cat category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created[obj.ID()] = created{obj: obj, cat: cat}
}
