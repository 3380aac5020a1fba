// Package asset defines the data model managed by the registry: live
// objects, classes, and the soft references that identify external
// resources which may or may not currently be resolved in memory.
package asset

import (
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrNullReference is returned when a soft reference has an empty path.
	ErrNullReference = errors.New("soft reference has a null path")
	// ErrNilClass is returned when an operation requires a class handle.
	ErrNilClass = errors.New("nil class")
)

// ID identifies a live object instance.
type ID string

// NewID returns a fresh unique instance ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Path identifies an asset in the external catalog.
type Path string

// IsNull reports whether the path is empty and therefore unloadable.
func (p Path) IsNull() bool {
	return p == ""
}

func (p Path) String() string {
	return string(p)
}

// Object is the base interface for everything the registry tracks.
type Object interface {
	ID() ID
	Name() string
	Class() *Class
}

// Disposable is implemented by objects that hold releasable resources.
// The registry disposes generic objects through this capability.
type Disposable interface {
	Object
	Dispose()
}

// Resource is a generic loaded or created object with an opaque payload.
type Resource struct {
	id       ID
	name     string
	class    *Class
	payload  []byte
	disposed atomic.Bool
}

// NewResource creates a resource of the given class.
func NewResource(name string, class *Class, payload []byte) *Resource {
	return &Resource{
		id:      NewID(),
		name:    name,
		class:   class,
		payload: payload,
	}
}

func (r *Resource) ID() ID        { return r.id }
func (r *Resource) Name() string  { return r.name }
func (r *Resource) Class() *Class { return r.class }

// Payload returns the resource payload, or nil after disposal.
func (r *Resource) Payload() []byte {
	if r.disposed.Load() {
		return nil
	}
	return r.payload
}

// Dispose releases the payload. Safe to call more than once.
func (r *Resource) Dispose() {
	if r.disposed.Swap(true) {
		return
	}
	r.payload = nil
}

// Disposed reports whether the resource has been disposed.
func (r *Resource) Disposed() bool {
	return r.disposed.Load()
}
