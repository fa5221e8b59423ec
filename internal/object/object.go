// Package object implements the reference-counted, type-erased heap cells that
// every runtime value lives in.
//
// An object is a cell holding a boxed value, an atomic reference count and a
// pointer to the TypeInfo record of its concrete type. Cells are reached
// through handles: Ref is the type-erased handle, Handle[T] a typed view.
// Copy increments the count, Move transfers ownership and empties the source,
// Drop decrements and runs the type's destroy callback when the count reaches
// zero. Static handles refer to immortal singletons and skip counting.
package object

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
)

// TypeInfo describes one concrete object type. Records are registered once at
// startup in a Registry and never mutated afterwards.
type TypeInfo struct {
	ID   uuid.UUID
	Name string
	Size uintptr

	// Destroy is invoked exactly once, when the last owning handle is dropped.
	Destroy func(v any)
	// Clone returns an independent copy of v. A nil Clone shares v.
	Clone func(v any) any
}

func (ti *TypeInfo) String() string {
	if ti == nil {
		return "<nil type>"
	}
	return ti.Name
}

// NewTypeInfo builds a TypeInfo for T with a stable id derived from name.
func NewTypeInfo[T any](name string) *TypeInfo {
	var zero T
	return &TypeInfo{
		ID:   StableID(name),
		Name: name,
		Size: unsafe.Sizeof(zero),
	}
}

// Namespace scopes the name-derived ids of built-in types.
var Namespace = uuid.MustParse("6f1c7c1e-3d5b-4b8e-9a59-2f0f6c7e8a10")

// StableID derives a deterministic 128-bit identity from a type name.
func StableID(name string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(name))
}

// Ownership tells whether a handle participates in reference counting.
type Ownership uint8

const (
	Owned Ownership = iota
	Static
)

func (o Ownership) String() string {
	if o == Static {
		return "static"
	}
	return "owned"
}

type cell struct {
	refs  atomic.Int64
	info  *TypeInfo
	value any
}

// Ref is an owning, type-erased handle. The zero Ref is empty.
//
// Refs must be duplicated with Copy and handed over with Move; a Ref copied by
// plain assignment aliases the same ownership share.
type Ref struct {
	c   *cell
	own Ownership
}

// Alloc places v in a fresh cell of the given type with a reference count of one.
func Alloc(info *TypeInfo, v any) Ref {
	if info == nil {
		panic("object: allocation without type info")
	}
	c := &cell{info: info, value: v}
	c.refs.Store(1)
	return Ref{c: c, own: Owned}
}

// NewStatic places v in an immortal cell. Copy and Drop on the result never
// touch the count and the destroy callback never runs.
func NewStatic(info *TypeInfo, v any) Ref {
	r := Alloc(info, v)
	r.own = Static
	return r
}

func (r Ref) IsNil() bool { return r.c == nil }

func (r Ref) Ownership() Ownership { return r.own }

func (r Ref) IsStatic() bool { return r.own == Static }

// Info returns the type record of the referenced object.
func (r Ref) Info() *TypeInfo {
	r.mustLive()
	return r.c.info
}

// Value dereferences the handle. Dereferencing an empty handle is a caller
// error and panics.
func (r Ref) Value() any {
	r.mustLive()
	return r.c.value
}

// Is reports whether the referenced object has the given type.
func (r Ref) Is(info *TypeInfo) bool {
	return r.c != nil && info != nil && r.c.info.ID == info.ID
}

// Same reports whether both handles alias one object.
func (r Ref) Same(other Ref) bool {
	return r.c != nil && r.c == other.c
}

// Refs returns the current reference count.
func (r Ref) Refs() int64 {
	if r.c == nil {
		return 0
	}
	return r.c.refs.Load()
}

// Copy returns a new owning handle to the same object.
func (r Ref) Copy() Ref {
	r.mustLive()
	if r.own == Owned {
		r.c.refs.Add(1)
	}
	return r
}

// Move transfers ownership out of r, leaving r empty.
func (r *Ref) Move() Ref {
	out := *r
	*r = Ref{}
	return out
}

// Drop releases r's share and empties r. Dropping an empty handle is a no-op,
// so a handle can never be released twice.
func (r *Ref) Drop() {
	c := r.c
	if c == nil {
		return
	}
	own := r.own
	*r = Ref{}
	if own == Static {
		return
	}
	// atomic operations are sequentially consistent, which orders every prior
	// release on other goroutines before the destroy below.
	switch n := c.refs.Add(-1); {
	case n == 0:
		if c.info.Destroy != nil {
			c.info.Destroy(c.value)
		}
		c.value = nil
	case n < 0:
		panic(fmt.Sprintf("object: %s released more often than retained", c.info.Name))
	}
}

// Clone allocates an independent object holding a copy of the value made by
// the type's clone callback.
func (r Ref) Clone() Ref {
	r.mustLive()
	v := r.c.value
	if r.c.info.Clone != nil {
		v = r.c.info.Clone(v)
	}
	return Alloc(r.c.info, v)
}

func (r Ref) String() string {
	if r.c == nil {
		return "<empty>"
	}
	if s, ok := r.c.value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", r.c.value)
}

func (r Ref) mustLive() {
	if r.c == nil {
		panic("object: use of empty handle")
	}
}

// Handle is a typed view over a Ref.
type Handle[T any] struct {
	Ref
}

// Allocate places v in a fresh cell of the given type.
func Allocate[T any](info *TypeInfo, v T) Handle[T] {
	return Handle[T]{Ref: Alloc(info, v)}
}

// Get returns the typed value.
func (h Handle[T]) Get() T {
	return h.Value().(T)
}

func (h Handle[T]) Copy() Handle[T] {
	return Handle[T]{Ref: h.Ref.Copy()}
}

func (h *Handle[T]) Move() Handle[T] {
	return Handle[T]{Ref: h.Ref.Move()}
}

// Erase gives up the typed view, transferring ownership to the returned Ref.
func (h *Handle[T]) Erase() Ref {
	return h.Ref.Move()
}

// As returns a typed view of r when its value has type T. Ownership stays
// with r.
func As[T any](r Ref) (Handle[T], bool) {
	if r.c == nil {
		return Handle[T]{}, false
	}
	if _, ok := r.c.value.(T); !ok {
		return Handle[T]{}, false
	}
	return Handle[T]{Ref: r}, true
}

// Unbox returns the value of r as T.
func Unbox[T any](r Ref) (T, bool) {
	var zero T
	if r.c == nil {
		return zero, false
	}
	v, ok := r.c.value.(T)
	return v, ok
}
