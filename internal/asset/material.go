package asset

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrNilParent is returned when a material instance has no parent template.
var ErrNilParent = errors.New("nil parent material")

var (
	materialClass     = NewClass("Material", nil)
	materialInstClass = NewClass("MaterialInstance", materialClass)
)

// MaterialClass returns the built-in class of material templates.
func MaterialClass() *Class { return materialClass }

// Material is a parameterized template from which dynamic instances are
// created. The template itself is immutable; instances override scalars.
type Material struct {
	id     ID
	name   string
	params map[string]float64
}

// NewMaterial creates a material template with default scalar parameters.
func NewMaterial(name string, params map[string]float64) *Material {
	if params == nil {
		params = make(map[string]float64)
	}
	return &Material{id: NewID(), name: name, params: params}
}

func (m *Material) ID() ID        { return m.id }
func (m *Material) Name() string  { return m.name }
func (m *Material) Class() *Class { return materialClass }

// Scalar returns a template parameter value.
func (m *Material) Scalar(name string) (float64, bool) {
	v, ok := m.params[name]
	return v, ok
}

// NewInstance creates a dynamic instance of this material. The outer
// object, when present, only names the instance for diagnostics.
func (m *Material) NewInstance(outer Object) (*MaterialInstance, error) {
	if m == nil {
		return nil, ErrNilParent
	}
	name := m.name + "-inst"
	if outer != nil {
		name = fmt.Sprintf("%s-inst-%s", m.name, outer.Name())
	}
	return &MaterialInstance{
		id:        NewID(),
		name:      name,
		parent:    m,
		overrides: make(map[string]float64),
	}, nil
}

// MaterialInstance is a dynamically created, mutable copy of a material
// template. It implements Disposable so the registry can tear it down
// through the generic path.
type MaterialInstance struct {
	id        ID
	name      string
	parent    *Material
	mu        sync.Mutex
	overrides map[string]float64
	disposed  atomic.Bool
}

func (mi *MaterialInstance) ID() ID        { return mi.id }
func (mi *MaterialInstance) Name() string  { return mi.name }
func (mi *MaterialInstance) Class() *Class { return materialInstClass }

// Parent returns the template this instance was created from.
func (mi *MaterialInstance) Parent() *Material { return mi.parent }

// SetScalar overrides a scalar parameter on this instance.
func (mi *MaterialInstance) SetScalar(name string, value float64) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	mi.overrides[name] = value
}

// Scalar returns the instance value for a parameter, falling back to the
// parent template when not overridden.
func (mi *MaterialInstance) Scalar(name string) (float64, bool) {
	mi.mu.Lock()
	if v, ok := mi.overrides[name]; ok {
		mi.mu.Unlock()
		return v, true
	}
	mi.mu.Unlock()
	return mi.parent.Scalar(name)
}

// Dispose drops the instance overrides. Safe to call more than once.
func (mi *MaterialInstance) Dispose() {
	if mi.disposed.Swap(true) {
		return
	}
	mi.mu.Lock()
	mi.overrides = nil
	mi.mu.Unlock()
}

// Disposed reports whether the instance has been disposed.
func (mi *MaterialInstance) Disposed() bool {
	return mi.disposed.Load()
}
