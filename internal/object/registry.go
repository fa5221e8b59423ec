package object

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	ErrRegistryFrozen = errors.New("type registry is frozen")
	ErrDuplicateType  = errors.New("type already registered")
)

// Registry maps stable type identities to their TypeInfo records.
//
// It is filled once during startup and frozen before any compile or run
// starts; after Freeze it is read-only and needs no locking.
type Registry struct {
	byID   map[uuid.UUID]*TypeInfo
	byName map[string]*TypeInfo
	order  []*TypeInfo
	frozen atomic.Bool
}

// NothingInfo is the type of the canonical empty value.
var NothingInfo = NewTypeInfo[struct{}]("Nothing")

// Nothing is the immortal empty value.
var Nothing = NewStatic(NothingInfo, struct{}{})

func NewRegistry() *Registry {
	r := &Registry{
		byID:   make(map[uuid.UUID]*TypeInfo),
		byName: make(map[string]*TypeInfo),
	}
	r.MustRegister(NothingInfo)
	return r
}

func (r *Registry) Register(info *TypeInfo) error {
	if r.frozen.Load() {
		return fmt.Errorf("registering %s: %w", info.Name, ErrRegistryFrozen)
	}
	if info.ID == uuid.Nil {
		return fmt.Errorf("registering %s: nil type id", info.Name)
	}
	if prev, ok := r.byID[info.ID]; ok {
		return fmt.Errorf("registering %s: id %s held by %s: %w", info.Name, info.ID, prev.Name, ErrDuplicateType)
	}
	if prev, ok := r.byName[info.Name]; ok {
		return fmt.Errorf("registering %s: name held by %s: %w", info.Name, prev.ID, ErrDuplicateType)
	}
	r.byID[info.ID] = info
	r.byName[info.Name] = info
	r.order = append(r.order, info)
	return nil
}

// MustRegister registers info and panics on failure. Meant for package-level
// setup of built-in types.
func (r *Registry) MustRegister(info *TypeInfo) *TypeInfo {
	if err := r.Register(info); err != nil {
		panic(err)
	}
	return info
}

func (r *Registry) Lookup(id uuid.UUID) (*TypeInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

func (r *Registry) ByName(name string) (*TypeInfo, bool) {
	info, ok := r.byName[name]
	return info, ok
}

// Types returns the registered records in registration order.
func (r *Registry) Types() []*TypeInfo {
	out := make([]*TypeInfo, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// Freeze makes the registry read-only.
func (r *Registry) Freeze() { r.frozen.Store(true) }

func (r *Registry) Frozen() bool { return r.frozen.Load() }
