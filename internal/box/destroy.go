package box

import (
	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/log"
	"github.com/zjrosen/cachebox/internal/world"
)

// DestroyObject tears down a single created object. The object is removed
// from the created set before its type-specific teardown runs, so
// re-entrant calls observe it as already gone. For generic objects,
// immediate selects disposal now versus deferred reclamation.
func (b *Box) DestroyObject(obj asset.Object, immediate bool) {
	if obj == nil {
		return
	}

	// Delete from the set first
	b.mu.Lock()
	entry, tracked := b.created[obj.ID()]
	delete(b.created, obj.ID())
	b.mu.Unlock()

	cat := entry.cat
	if !tracked {
		cat = categorize(obj)
	}

	log.Debug(log.CatBox, "DestroyObject", "box", b.DebugID(), "name", obj.Name())
	b.teardown(obj, cat, immediate)
}

// DestroyAllObjects tears down every created object. The whole set is
// snapshotted and cleared before any teardown runs; members are always
// destroyed immediately. Iteration order is unspecified.
func (b *Box) DestroyAllObjects() {
	if b.destroyed.Load() {
		return
	}
	b.destroyAll()
}

func (b *Box) destroyAll() {
	b.mu.Lock()
	snapshot := make([]created, 0, len(b.created))
	for _, entry := range b.created {
		snapshot = append(snapshot, entry)
	}
	b.created = make(map[asset.ID]created)
	b.mu.Unlock()

	log.Debug(log.CatBox, "DestroyAllObjects", "box", b.DebugID(), "count", len(snapshot))
	for _, entry := range snapshot {
		b.teardown(entry.obj, entry.cat, true)
	}
}

// teardown applies the category-specific destruction policy.
func (b *Box) teardown(obj asset.Object, cat category, immediate bool) {
	switch cat {
	case categoryWidget:
		// Detaching from the presentation parent is sufficient teardown.
		if w, ok := obj.(world.Widget); ok {
			w.RemoveFromParent()
			return
		}
	case categoryActor:
		if b.world != nil {
			if a, ok := obj.(world.Actor); ok {
				if err := b.world.DestroyActor(a); err != nil {
					log.Warn(log.CatBox, "DestroyActor failed", "box", b.DebugID(), "name", obj.Name(), "error", err)
				}
				return
			}
		}
	}

	if immediate {
		b.reclaimer.DisposeNow(obj)
	} else {
		b.reclaimer.Defer(obj)
	}
}

// categorize derives a teardown category for objects the box never
// tracked. Tracked objects carry the category decided at creation time.
func categorize(obj asset.Object) category {
	switch obj.(type) {
	case world.Widget:
		return categoryWidget
	case world.Actor:
		return categoryActor
	default:
		return categoryGeneric
	}
}

// UnloadObject releases the box's strong hold on a loaded object and
// resets the soft reference, signaling the streaming service the asset
// no longer needs to stay resident. A no-op for unresolved references.
// Only the reference currently tracked for the path may release it; a
// reference superseded by a later load only drops its own handle.
func (b *Box) UnloadObject(ref *asset.SoftObjectRef) {
	if !ref.IsValid() {
		return
	}

	obj := ref.Get()

	b.mu.Lock()
	if b.softObjects[ref.Path()] != ref {
		b.mu.Unlock()
		ref.Reset()
		return
	}
	delete(b.loaded, obj.ID())
	delete(b.softObjects, ref.Path())
	b.mu.Unlock()

	log.Debug(log.CatBox, "UnloadObject", "box", b.DebugID(), "path", ref.Path(), "name", obj.Name())
	ref.Reset()
	b.stream.Release(ref.Path())
}

// UnloadClass releases the box's strong hold on a loaded class and resets
// the soft reference. A no-op for unresolved references, and for
// references superseded by a later load of the same path.
func (b *Box) UnloadClass(ref *asset.SoftClassRef) {
	if !ref.IsValid() {
		return
	}

	cls := ref.Get()

	b.mu.Lock()
	if b.softClasses[ref.Path()] != ref {
		b.mu.Unlock()
		ref.Reset()
		return
	}
	delete(b.loaded, cls.ID())
	delete(b.softClasses, ref.Path())
	b.mu.Unlock()

	log.Debug(log.CatBox, "UnloadClass", "box", b.DebugID(), "path", ref.Path(), "name", cls.Name())
	ref.Reset()
	b.stream.Release(ref.Path())
}

// UnloadAllObjects resets every soft reference the box holds and clears
// the loaded set and both soft-reference sets.
func (b *Box) UnloadAllObjects() {
	if b.destroyed.Load() {
		return
	}
	b.unloadAll()
}

func (b *Box) unloadAll() {
	b.mu.Lock()
	objects := b.softObjects
	classes := b.softClasses
	b.loaded = make(map[asset.ID]asset.Object)
	b.softObjects = make(map[asset.Path]*asset.SoftObjectRef)
	b.softClasses = make(map[asset.Path]*asset.SoftClassRef)
	b.mu.Unlock()

	log.Debug(log.CatBox, "UnloadAllObjects", "box", b.DebugID(),
		"objects", len(objects), "classes", len(classes))

	for path, ref := range objects {
		ref.Reset()
		b.stream.Release(path)
	}
	for path, ref := range classes {
		ref.Reset()
		b.stream.Release(path)
	}
}

// DestroyBox performs full teardown: every created object is destroyed
// and every loaded object unloaded, after which the box refuses further
// operations. Idempotent: tearing down an already-destroyed box is a
// safe no-op. Returns whether this call performed the teardown.
func (b *Box) DestroyBox() bool {
	if b.destroyed.Swap(true) {
		return false
	}

	log.Info(log.CatBox, "DestroyBox", "box", b.DebugID())
	b.destroyAll()
	b.unloadAll()
	return true
}
