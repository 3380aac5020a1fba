package asset

// SoftObjectRef is a lightweight reference to an external object asset:
// a catalog path plus an optional strong handle to the resolved value.
// Unloading drops the strong handle and keeps only the path.
type SoftObjectRef struct {
	path   Path
	target Object
}

// NewSoftObjectRef creates an unresolved reference to the given path.
func NewSoftObjectRef(path Path) *SoftObjectRef {
	return &SoftObjectRef{path: path}
}

// Path returns the catalog path the reference points at.
func (r *SoftObjectRef) Path() Path {
	if r == nil {
		return ""
	}
	return r.path
}

// IsNull reports whether the reference has no path and can never resolve.
func (r *SoftObjectRef) IsNull() bool {
	return r == nil || r.path.IsNull()
}

// IsValid reports whether the reference currently holds a resolved object.
func (r *SoftObjectRef) IsValid() bool {
	return r != nil && r.target != nil
}

// Get returns the resolved object, or nil while unresolved.
func (r *SoftObjectRef) Get() Object {
	if r == nil {
		return nil
	}
	return r.target
}

// Bind attaches the resolved object to the reference.
func (r *SoftObjectRef) Bind(obj Object) {
	r.target = obj
}

// Reset drops the strong handle, keeping only the path.
func (r *SoftObjectRef) Reset() {
	r.target = nil
}

// SoftClassRef is a soft reference to a class asset. It is tracked apart
// from object references because class resolution carries an extra
// type-compatibility check against an expected base class.
type SoftClassRef struct {
	path   Path
	target *Class
}

// NewSoftClassRef creates an unresolved reference to the given path.
func NewSoftClassRef(path Path) *SoftClassRef {
	return &SoftClassRef{path: path}
}

// Path returns the catalog path the reference points at.
func (r *SoftClassRef) Path() Path {
	if r == nil {
		return ""
	}
	return r.path
}

// IsNull reports whether the reference has no path and can never resolve.
func (r *SoftClassRef) IsNull() bool {
	return r == nil || r.path.IsNull()
}

// IsValid reports whether the reference currently holds a resolved class.
func (r *SoftClassRef) IsValid() bool {
	return r != nil && r.target != nil
}

// Get returns the resolved class, or nil while unresolved.
func (r *SoftClassRef) Get() *Class {
	if r == nil {
		return nil
	}
	return r.target
}

// Bind attaches the resolved class to the reference.
func (r *SoftClassRef) Bind(c *Class) {
	r.target = c
}

// Reset drops the strong handle, keeping only the path.
func (r *SoftClassRef) Reset() {
	r.target = nil
}
