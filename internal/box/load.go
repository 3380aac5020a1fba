package box

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/log"
)

// LoadObjectSync resolves a soft object reference, blocking the caller
// until the streaming service finishes. On success the object is held
// strongly in the loaded set and the reference is kept for unloading.
func (b *Box) LoadObjectSync(ctx context.Context, ref *asset.SoftObjectRef) (asset.Object, error) {
	if b.destroyed.Load() {
		return nil, ErrBoxDestroyed
	}
	if ref.IsNull() {
		log.Warn(log.CatBox, "LoadObjectSync with null reference", "box", b.DebugID())
		return nil, asset.ErrNullReference
	}

	log.Debug(log.CatBox, "LoadObjectSync", "box", b.DebugID(), "path", ref.Path())
	obj, err := b.stream.LoadBlocking(ctx, ref.Path())
	if err != nil {
		log.ErrorErr(log.CatBox, "LoadObjectSync failed", err, "box", b.DebugID(), "path", ref.Path())
		return nil, fmt.Errorf("load %s: %w", ref.Path(), err)
	}

	b.mu.Lock()
	ref.Bind(obj)
	b.loaded[obj.ID()] = obj
	b.softObjects[ref.Path()] = ref
	b.mu.Unlock()

	log.Debug(log.CatBox, "Loaded object", "box", b.DebugID(), "path", ref.Path(), "name", obj.Name())
	return obj, nil
}

// LoadObjectsSync resolves a batch of soft object references in order.
// Null entries are skipped with a warning; each valid entry is resolved
// independently and sequentially. Returns the successfully loaded objects.
func (b *Box) LoadObjectsSync(ctx context.Context, refs []*asset.SoftObjectRef) []asset.Object {
	log.Debug(log.CatBox, "LoadObjectsSync", "box", b.DebugID(), "count", len(refs))

	var out []asset.Object
	for _, ref := range refs {
		if ref.IsNull() {
			log.Warn(log.CatBox, "LoadObjectsSync skipping null reference", "box", b.DebugID())
			continue
		}
		obj, err := b.LoadObjectSync(ctx, ref)
		if err != nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// LoadClassSync resolves a soft class reference, blocking the caller.
// The resolved class must extend base when base is non-nil; on mismatch
// the load fails and the loaded sets are unchanged.
func (b *Box) LoadClassSync(ctx context.Context, ref *asset.SoftClassRef, base *asset.Class) (*asset.Class, error) {
	if b.destroyed.Load() {
		return nil, ErrBoxDestroyed
	}
	if ref.IsNull() {
		log.Warn(log.CatBox, "LoadClassSync with null reference", "box", b.DebugID())
		return nil, asset.ErrNullReference
	}

	log.Debug(log.CatBox, "LoadClassSync", "box", b.DebugID(), "path", ref.Path())
	obj, err := b.stream.LoadBlocking(ctx, ref.Path())
	if err != nil {
		log.ErrorErr(log.CatBox, "LoadClassSync failed", err, "box", b.DebugID(), "path", ref.Path())
		return nil, fmt.Errorf("load %s: %w", ref.Path(), err)
	}

	cls, ok := obj.(*asset.Class)
	if !ok {
		log.Error(log.CatBox, "LoadClassSync resolved a non-class", "box", b.DebugID(), "path", ref.Path())
		return nil, fmt.Errorf("%w: %s", ErrNotAClass, ref.Path())
	}
	if base != nil && !cls.Extends(base) {
		log.Error(log.CatBox, "LoadClassSync class mismatch", "box", b.DebugID(),
			"path", ref.Path(), "class", cls.Name(), "base", base.Name())
		return nil, fmt.Errorf("%w: %s does not extend %s", ErrClassMismatch, cls.Name(), base.Name())
	}

	b.mu.Lock()
	ref.Bind(cls)
	b.loaded[cls.ID()] = cls
	b.softClasses[ref.Path()] = ref
	b.mu.Unlock()

	log.Debug(log.CatBox, "Loaded class", "box", b.DebugID(), "path", ref.Path(), "name", cls.Name())
	return cls, nil
}

// LoadClassesSync resolves a batch of soft class references in order,
// skipping and warning on null entries. Returns the loaded classes.
func (b *Box) LoadClassesSync(ctx context.Context, refs []*asset.SoftClassRef, base *asset.Class) []*asset.Class {
	log.Debug(log.CatBox, "LoadClassesSync", "box", b.DebugID(), "count", len(refs))

	var out []*asset.Class
	for _, ref := range refs {
		if ref.IsNull() {
			log.Warn(log.CatBox, "LoadClassesSync skipping null reference", "box", b.DebugID())
			continue
		}
		cls, err := b.LoadClassSync(ctx, ref, base)
		if err != nil {
			continue
		}
		out = append(out, cls)
	}
	return out
}

// RequestAsyncLoadObjects submits a batch of soft object references for
// background resolution. Null references are filtered with a warning.
// onComplete is invoked exactly once for the whole batch; when every
// reference is filtered out it fires synchronously before the call
// returns. If the box is destroyed before the batch finishes, the
// completion is dropped silently and nothing is mutated.
func (b *Box) RequestAsyncLoadObjects(refs []*asset.SoftObjectRef, onComplete func()) {
	if b.destroyed.Load() {
		log.Warn(log.CatBox, "RequestAsyncLoadObjects on destroyed box", "box", b.DebugID())
		return
	}

	_, span := b.tracer.Start(context.Background(), "box.request_async_load_objects",
		trace.WithAttributes(attribute.Int("batch.size", len(refs))))
	defer span.End()

	valid := make([]*asset.SoftObjectRef, 0, len(refs))
	paths := make([]asset.Path, 0, len(refs))
	for _, ref := range refs {
		if ref.IsNull() {
			log.Warn(log.CatBox, "RequestAsyncLoadObjects skipping null reference", "box", b.DebugID())
			continue
		}
		valid = append(valid, ref)
		paths = append(paths, ref.Path())
	}

	if len(valid) == 0 {
		// The contract is exactly-once, not always-later.
		if onComplete != nil {
			onComplete()
		}
		return
	}

	log.Debug(log.CatBox, "RequestAsyncLoadObjects", "box", b.DebugID(), "count", len(valid))
	b.stream.RequestAsyncLoad(paths, func() {
		b.mu.Lock()
		// A box destroyed while the batch was in flight must not be
		// resurrected; the completion is dropped silently.
		if b.destroyed.Load() {
			b.mu.Unlock()
			return
		}
		for _, ref := range valid {
			obj, ok := b.stream.Resolve(ref.Path())
			if !ok {
				log.Error(log.CatBox, "Async load left path unresolved", "box", b.DebugID(), "path", ref.Path())
				continue
			}
			ref.Bind(obj)
			b.loaded[obj.ID()] = obj
			b.softObjects[ref.Path()] = ref
			log.Debug(log.CatBox, "Async loaded object", "box", b.DebugID(), "path", ref.Path(), "name", obj.Name())
		}
		b.mu.Unlock()

		if onComplete != nil {
			onComplete()
		}
	})
}

// RequestAsyncLoadClasses submits a batch of soft class references for
// background resolution, with the same contract as
// RequestAsyncLoadObjects. Resolved classes must extend base when base is
// non-nil; mismatches are logged and skipped without failing the batch.
func (b *Box) RequestAsyncLoadClasses(refs []*asset.SoftClassRef, base *asset.Class, onComplete func()) {
	if b.destroyed.Load() {
		log.Warn(log.CatBox, "RequestAsyncLoadClasses on destroyed box", "box", b.DebugID())
		return
	}

	_, span := b.tracer.Start(context.Background(), "box.request_async_load_classes",
		trace.WithAttributes(attribute.Int("batch.size", len(refs))))
	defer span.End()

	valid := make([]*asset.SoftClassRef, 0, len(refs))
	paths := make([]asset.Path, 0, len(refs))
	for _, ref := range refs {
		if ref.IsNull() {
			log.Warn(log.CatBox, "RequestAsyncLoadClasses skipping null reference", "box", b.DebugID())
			continue
		}
		valid = append(valid, ref)
		paths = append(paths, ref.Path())
	}

	if len(valid) == 0 {
		if onComplete != nil {
			onComplete()
		}
		return
	}

	log.Debug(log.CatBox, "RequestAsyncLoadClasses", "box", b.DebugID(), "count", len(valid))
	b.stream.RequestAsyncLoad(paths, func() {
		b.mu.Lock()
		if b.destroyed.Load() {
			b.mu.Unlock()
			return
		}
		for _, ref := range valid {
			obj, ok := b.stream.Resolve(ref.Path())
			if !ok {
				log.Error(log.CatBox, "Async load left path unresolved", "box", b.DebugID(), "path", ref.Path())
				continue
			}
			cls, isClass := obj.(*asset.Class)
			if !isClass {
				log.Error(log.CatBox, "Async class load resolved a non-class", "box", b.DebugID(), "path", ref.Path())
				continue
			}
			if base != nil && !cls.Extends(base) {
				log.Error(log.CatBox, "Async class load mismatch", "box", b.DebugID(),
					"path", ref.Path(), "class", cls.Name(), "base", base.Name())
				continue
			}
			ref.Bind(cls)
			b.loaded[cls.ID()] = cls
			b.softClasses[ref.Path()] = ref
			log.Debug(log.CatBox, "Async loaded class", "box", b.DebugID(), "path", ref.Path(), "name", cls.Name())
		}
		b.mu.Unlock()

		if onComplete != nil {
			onComplete()
		}
	})
}
