package world

import (
	"fmt"
	"sync"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/log"
)

// SimWorld is an in-memory world implementation. It stands in for an
// external engine in the CLI demo and in tests.
type SimWorld struct {
	mu      sync.Mutex
	ctx     *Context
	actors  map[asset.ID]*SimActor
	widgets map[asset.ID]*SimWidget
	counter int
}

// NewSimWorld creates a world with no active context.
func NewSimWorld() *SimWorld {
	return &SimWorld{
		actors:  make(map[asset.ID]*SimActor),
		widgets: make(map[asset.ID]*SimWidget),
	}
}

// SetContext activates a context with the given name.
func (w *SimWorld) SetContext(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctx = &Context{Name: name}
}

// ClearContext deactivates the current context.
func (w *SimWorld) ClearContext() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctx = nil
}

// CurrentContext returns the active context, if any.
func (w *SimWorld) CurrentContext() (Context, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil {
		return Context{}, false
	}
	return *w.ctx, true
}

// SpawnActor spawns an entity of the given class into the world.
func (w *SimWorld) SpawnActor(class *asset.Class) (Actor, error) {
	if class == nil {
		return nil, asset.ErrNilClass
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.counter++
	a := &SimActor{
		id:    asset.NewID(),
		name:  fmt.Sprintf("%s-%d", class.Name(), w.counter),
		class: class,
	}
	w.actors[a.id] = a
	log.Debug(log.CatWorld, "Spawned actor", "name", a.name, "class", class.Name())
	return a, nil
}

// DestroyActor removes a previously spawned actor from the world.
func (w *SimWorld) DestroyActor(a Actor) error {
	if a == nil {
		return ErrUnknownActor
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.actors[a.ID()]; !ok {
		return ErrUnknownActor
	}
	delete(w.actors, a.ID())
	log.Debug(log.CatWorld, "Destroyed actor", "name", a.Name())
	return nil
}

// CreateWidget creates a widget attached to the active context.
func (w *SimWorld) CreateWidget(class *asset.Class) (Widget, error) {
	if class == nil {
		return nil, asset.ErrNilClass
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx == nil {
		return nil, ErrNoContext
	}
	w.counter++
	wd := &SimWidget{
		id:       asset.NewID(),
		name:     fmt.Sprintf("%s-%d", class.Name(), w.counter),
		class:    class,
		world:    w,
		attached: true,
	}
	w.widgets[wd.id] = wd
	log.Debug(log.CatWorld, "Created widget", "name", wd.name, "context", w.ctx.Name)
	return wd, nil
}

// Contains reports whether the actor is currently alive in the world.
func (w *SimWorld) Contains(a Actor) bool {
	if a == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.actors[a.ID()]
	return ok
}

// ActorCount returns the number of live actors.
func (w *SimWorld) ActorCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.actors)
}

// AttachedWidgetCount returns the number of widgets still attached.
func (w *SimWorld) AttachedWidgetCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, wd := range w.widgets {
		if wd.attached {
			n++
		}
	}
	return n
}

// SimActor is an in-memory world entity.
type SimActor struct {
	id    asset.ID
	name  string
	class *asset.Class
}

func (a *SimActor) ID() asset.ID        { return a.id }
func (a *SimActor) Name() string        { return a.name }
func (a *SimActor) Class() *asset.Class { return a.class }

// SimWidget is an in-memory presentation element.
type SimWidget struct {
	id       asset.ID
	name     string
	class    *asset.Class
	world    *SimWorld
	attached bool
}

func (wd *SimWidget) ID() asset.ID        { return wd.id }
func (wd *SimWidget) Name() string        { return wd.name }
func (wd *SimWidget) Class() *asset.Class { return wd.class }

// RemoveFromParent detaches the widget from its presentation parent.
// Detaching twice is a no-op.
func (wd *SimWidget) RemoveFromParent() {
	wd.world.mu.Lock()
	defer wd.world.mu.Unlock()
	wd.attached = false
}

// Attached reports whether the widget is still attached.
func (wd *SimWidget) Attached() bool {
	wd.world.mu.Lock()
	defer wd.world.mu.Unlock()
	return wd.attached
}
