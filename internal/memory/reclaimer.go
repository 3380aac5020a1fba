// Package memory provides deferred reclamation for registry-owned objects,
// standing in for an external garbage collector: immediate disposal runs
// now, deferred disposal waits for the next sweep.
package memory

import (
	"sync"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/log"
)

// Reclaimer tracks objects marked for deferred reclamation.
type Reclaimer struct {
	mu       sync.Mutex
	deferred []asset.Object
}

// NewReclaimer creates an empty reclaimer.
func NewReclaimer() *Reclaimer {
	return &Reclaimer{}
}

// DisposeNow disposes the object immediately when it is Disposable.
// Objects without the capability have nothing to release.
func (r *Reclaimer) DisposeNow(obj asset.Object) {
	if obj == nil {
		return
	}
	if d, ok := obj.(asset.Disposable); ok {
		d.Dispose()
	}
}

// Defer marks the object for reclamation on the next sweep.
func (r *Reclaimer) Defer(obj asset.Object) {
	if obj == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred = append(r.deferred, obj)
}

// Sweep disposes every deferred object and returns how many were reclaimed.
func (r *Reclaimer) Sweep() int {
	r.mu.Lock()
	pending := r.deferred
	r.deferred = nil
	r.mu.Unlock()

	for _, obj := range pending {
		r.DisposeNow(obj)
	}
	if len(pending) > 0 {
		log.Debug(log.CatBox, "Swept deferred objects", "count", len(pending))
	}
	return len(pending)
}

// Pending returns the number of objects awaiting the next sweep.
func (r *Reclaimer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deferred)
}
