package box

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/log"
	"github.com/zjrosen/cachebox/internal/world"
)

// CreateObject instantiates an object of the given class and takes
// ownership of it. The returned handle is non-owning: the box is what
// eventually destroys the object.
func (b *Box) CreateObject(class *asset.Class) (asset.Object, error) {
	if b.destroyed.Load() {
		return nil, ErrBoxDestroyed
	}
	if class == nil {
		log.Error(log.CatBox, "CreateObject with invalid class", "box", b.DebugID())
		return nil, asset.ErrNilClass
	}

	_, span := b.tracer.Start(context.Background(), "box.create_object",
		trace.WithAttributes(attribute.String("class", class.Name())))
	defer span.End()

	obj, err := class.New()
	if err != nil {
		log.Warn(log.CatBox, "CreateObject failed", "box", b.DebugID(), "class", class.Name(), "error", err)
		return nil, fmt.Errorf("create object: %w", err)
	}

	b.track(obj, categoryGeneric)
	log.Debug(log.CatBox, "Created object", "box", b.DebugID(), "name", obj.Name())
	return obj, nil
}

// CreateWidget creates a widget attached to the world's active context
// and takes ownership of it. Fails when no context is active.
func (b *Box) CreateWidget(class *asset.Class) (world.Widget, error) {
	if b.destroyed.Load() {
		return nil, ErrBoxDestroyed
	}
	if class == nil {
		log.Error(log.CatBox, "CreateWidget with invalid class", "box", b.DebugID())
		return nil, asset.ErrNilClass
	}
	if b.world == nil {
		log.Warn(log.CatBox, "CreateWidget without a world", "box", b.DebugID(), "class", class.Name())
		return nil, ErrNoWorld
	}
	if _, ok := b.world.CurrentContext(); !ok {
		log.Warn(log.CatBox, "CreateWidget without an active context", "box", b.DebugID(), "class", class.Name())
		return nil, world.ErrNoContext
	}

	w, err := b.world.CreateWidget(class)
	if err != nil {
		log.Warn(log.CatBox, "CreateWidget failed", "box", b.DebugID(), "class", class.Name(), "error", err)
		return nil, fmt.Errorf("create widget: %w", err)
	}

	b.track(w, categoryWidget)
	log.Debug(log.CatBox, "Created widget", "box", b.DebugID(), "name", w.Name())
	return w, nil
}

// CreateActor spawns an entity of spawnClass into the world and takes
// ownership of it. When want is non-nil the spawned class must extend it;
// on mismatch the spawned actor is destroyed rather than leaked, and the
// call fails.
func (b *Box) CreateActor(spawnClass, want *asset.Class) (world.Actor, error) {
	if b.destroyed.Load() {
		return nil, ErrBoxDestroyed
	}
	if spawnClass == nil {
		log.Error(log.CatBox, "CreateActor with invalid class", "box", b.DebugID())
		return nil, asset.ErrNilClass
	}
	if b.world == nil {
		log.Warn(log.CatBox, "CreateActor without a world", "box", b.DebugID(), "class", spawnClass.Name())
		return nil, ErrNoWorld
	}

	_, span := b.tracer.Start(context.Background(), "box.create_actor",
		trace.WithAttributes(attribute.String("class", spawnClass.Name())))
	defer span.End()

	actor, err := b.world.SpawnActor(spawnClass)
	if err != nil {
		log.Warn(log.CatBox, "CreateActor failed", "box", b.DebugID(), "class", spawnClass.Name(), "error", err)
		return nil, fmt.Errorf("spawn actor: %w", err)
	}

	if want != nil && !actor.Class().Extends(want) {
		// The spawn succeeded but the class is wrong; destroy the actor
		// instead of leaving it alive and untracked.
		if derr := b.world.DestroyActor(actor); derr != nil {
			log.ErrorErr(log.CatBox, "Failed to destroy mismatched actor", derr, "box", b.DebugID(), "name", actor.Name())
		}
		log.Warn(log.CatBox, "CreateActor class mismatch", "box", b.DebugID(),
			"spawned", actor.Class().Name(), "want", want.Name())
		return nil, fmt.Errorf("%w: %s does not extend %s", ErrClassMismatch, actor.Class().Name(), want.Name())
	}

	b.track(actor, categoryActor)
	log.Debug(log.CatBox, "Created actor", "box", b.DebugID(), "name", actor.Name())
	return actor, nil
}

// CreateMaterialInstance creates a dynamic material instance from a
// parent template and takes ownership of it.
func (b *Box) CreateMaterialInstance(parent *asset.Material, outer asset.Object) (*asset.MaterialInstance, error) {
	if b.destroyed.Load() {
		return nil, ErrBoxDestroyed
	}
	if parent == nil {
		log.Error(log.CatBox, "CreateMaterialInstance with nil parent", "box", b.DebugID())
		return nil, asset.ErrNilParent
	}

	mi, err := parent.NewInstance(outer)
	if err != nil {
		log.Warn(log.CatBox, "CreateMaterialInstance failed", "box", b.DebugID(), "parent", parent.Name(), "error", err)
		return nil, fmt.Errorf("create material instance: %w", err)
	}

	b.track(mi, categoryGeneric)
	log.Debug(log.CatBox, "Created material instance", "box", b.DebugID(), "name", mi.Name())
	return mi, nil
}
