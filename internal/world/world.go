// Package world defines the world/context provider the registry creates
// actors and widgets through, plus an in-memory implementation used by
// the CLI demo and tests.
package world

import (
	"errors"

	"github.com/zjrosen/cachebox/internal/asset"
)

var (
	// ErrNoContext is returned when no active context exists to create into.
	ErrNoContext = errors.New("no active context")
	// ErrUnknownActor is returned when destroying an actor this world never spawned.
	ErrUnknownActor = errors.New("actor not spawned in this world")
)

// Context identifies the active scene objects are created into.
type Context struct {
	Name string
}

// Actor is an entity spawned into a world. Its destruction is requested
// from the world that owns it, never performed directly.
type Actor interface {
	asset.Object
}

// Widget is a presentation element attached to a parent surface.
// Detaching it is sufficient teardown.
type Widget interface {
	asset.Object
	RemoveFromParent()
}

// World resolves creation requests for actors and widgets.
type World interface {
	// CurrentContext returns the active context, if any. Widget creation
	// is gated on its presence.
	CurrentContext() (Context, bool)
	// SpawnActor spawns an entity of the given class into the world.
	SpawnActor(class *asset.Class) (Actor, error)
	// DestroyActor requests destruction of a previously spawned actor.
	DestroyActor(a Actor) error
	// CreateWidget creates a widget attached to the active context.
	CreateWidget(class *asset.Class) (Widget, error)
	// Contains reports whether the actor is currently alive in the world.
	Contains(a Actor) bool
}
