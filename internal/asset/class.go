package asset

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoFactory is returned by New when a class cannot instantiate objects.
var ErrNoFactory = errors.New("class has no factory")

// metaClass is the class of all classes, mirroring a class being an
// object in its own right so loaded classes can live in the same sets
// as loaded objects.
var metaClass = &Class{id: NewID(), name: "Class"}

// Class describes a type of object: a name, an optional parent forming a
// single-inheritance chain, and an optional factory for instantiation.
type Class struct {
	id      ID
	name    string
	parent  *Class
	factory func(c *Class) (Object, error)
}

// NewClass creates a class with the default resource factory.
func NewClass(name string, parent *Class) *Class {
	return &Class{id: NewID(), name: name, parent: parent}
}

// NewClassWithFactory creates a class whose New uses the given factory.
// A nil factory yields a class that fails instantiation with ErrNoFactory.
func NewClassWithFactory(name string, parent *Class, factory func(c *Class) (Object, error)) *Class {
	return &Class{id: NewID(), name: name, parent: parent, factory: factory}
}

func (c *Class) ID() ID         { return c.id }
func (c *Class) Name() string   { return c.name }
func (c *Class) Parent() *Class { return c.parent }

// Class returns the meta class, making Class itself an Object.
func (c *Class) Class() *Class { return metaClass }

// Extends reports whether c is base or a descendant of base.
func (c *Class) Extends(base *Class) bool {
	if c == nil || base == nil {
		return false
	}
	for cur := c; cur != nil; cur = cur.parent {
		if cur == base {
			return true
		}
	}
	return false
}

// New instantiates an object of this class.
func (c *Class) New() (Object, error) {
	if c.factory != nil {
		obj, err := c.factory(c)
		if err != nil {
			return nil, fmt.Errorf("instantiate %s: %w", c.name, err)
		}
		return obj, nil
	}
	return NewResource(c.name, c, nil), nil
}

// ClassSet is a registry of classes keyed by name. The streaming service
// uses it to resolve parent chains while materializing class assets.
type ClassSet struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewClassSet creates an empty class set.
func NewClassSet() *ClassSet {
	return &ClassSet{classes: make(map[string]*Class)}
}

// Register adds a class to the set, replacing any same-named class.
func (s *ClassSet) Register(c *Class) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[c.name] = c
}

// Get returns the class with the given name.
func (s *ClassSet) Get(name string) (*Class, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[name]
	return c, ok
}

// GetOrCreate returns the named class, creating and registering it with
// the given parent when absent. An existing class keeps its parent.
func (s *ClassSet) GetOrCreate(name string, parent *Class) *Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.classes[name]; ok {
		return c
	}
	c := NewClass(name, parent)
	s.classes[name] = c
	return c
}

// Len returns the number of registered classes.
func (s *ClassSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.classes)
}
