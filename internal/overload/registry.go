// Package overload resolves references to overload classes. A class groups
// several same-shaped implementations under one name; inference picks, for
// every occurrence in a graph, the single candidate consistent with the types
// flowing through the whole expression.
package overload

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

var (
	ErrRegistryFrozen = errors.New("overload registry is frozen")
	ErrDuplicateClass = errors.New("overload class already registered")
	ErrEmptyClass     = errors.New("overload class has no candidates")
)

// Candidate is one concrete implementation of a class.
type Candidate struct {
	Name  string
	Type  typesystem.Type
	Value object.Ref
}

func (c Candidate) String() string {
	return c.Name + " :: " + c.Type.String()
}

// Class is a registered overload class. Type is the most specific type every
// candidate is an instance of.
type Class struct {
	ID         graph.ClassID
	Name       string
	Type       typesystem.Type
	Candidates []Candidate
}

func (c *Class) String() string {
	names := make([]string, len(c.Candidates))
	for i, cand := range c.Candidates {
		names[i] = cand.Name
	}
	return fmt.Sprintf("%s :: %s {%s}", c.Name, c.Type, strings.Join(names, ", "))
}

// Registry holds overload classes. It is filled at startup and frozen before
// inference starts; after Freeze it is safe for concurrent readers.
type Registry struct {
	classes map[graph.ClassID]*Class
	byName  map[string]*Class
	order   []*Class
	frozen  atomic.Bool
}

func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[graph.ClassID]*Class),
		byName:  make(map[string]*Class),
	}
}

// ClassIDOf returns the id a class registered under name receives.
func ClassIDOf(name string) graph.ClassID {
	return graph.ClassID(object.StableID("overload/" + name))
}

// AddOverloading registers a class whose type is the least general
// generalization of the candidate types. The registry takes ownership of
// every candidate value, also when registration fails.
func (r *Registry) AddOverloading(name string, candidates ...Candidate) (graph.ClassID, error) {
	types := make([]typesystem.Type, len(candidates))
	for i, c := range candidates {
		types[i] = c.Type
	}
	var t typesystem.Type
	if len(types) > 0 {
		t = typesystem.AntiUnify(types...)
	}
	return r.add(name, t, candidates)
}

// AddOverloadingAs registers a class with an explicit type. Every candidate
// must be an instance of t.
func (r *Registry) AddOverloadingAs(name string, t typesystem.Type, candidates ...Candidate) (graph.ClassID, error) {
	for _, c := range candidates {
		if !typesystem.Specializes(t, c.Type) {
			dropAll(candidates)
			return graph.ClassID{}, fmt.Errorf("overload %s: candidate %s: %w", name, c.Name,
				&typesystem.TypeMismatchError{Left: t, Right: c.Type, Reason: "candidate is not an instance of the class type"})
		}
	}
	return r.add(name, t, candidates)
}

func (r *Registry) add(name string, t typesystem.Type, candidates []Candidate) (graph.ClassID, error) {
	fail := func(err error) (graph.ClassID, error) {
		dropAll(candidates)
		return graph.ClassID{}, err
	}
	if r.frozen.Load() {
		return fail(fmt.Errorf("%w: cannot add %s", ErrRegistryFrozen, name))
	}
	if len(candidates) == 0 {
		return fail(fmt.Errorf("%w: %s", ErrEmptyClass, name))
	}
	if _, ok := r.byName[name]; ok {
		return fail(fmt.Errorf("%w: %s", ErrDuplicateClass, name))
	}
	for i := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if _, err := typesystem.UnifyTypes(typesystem.Generalize(a.Type), typesystem.Generalize(b.Type)); err == nil {
				return fail(&OverlappingInstanceError{Class: name, First: a, Second: b})
			}
		}
	}

	c := &Class{ID: ClassIDOf(name), Name: name, Type: t, Candidates: candidates}
	r.classes[c.ID] = c
	r.byName[name] = c
	r.order = append(r.order, c)
	return c.ID, nil
}

func (r *Registry) Class(id graph.ClassID) (*Class, bool) {
	c, ok := r.classes[id]
	return c, ok
}

func (r *Registry) ByName(name string) (*Class, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Classes returns the classes in registration order.
func (r *Registry) Classes() []*Class {
	return append([]*Class(nil), r.order...)
}

func (r *Registry) Freeze() { r.frozen.Store(true) }

// Release drops every candidate value held by the registry.
func (r *Registry) Release() {
	for _, c := range r.order {
		dropAll(c.Candidates)
	}
}

func dropAll(cs []Candidate) {
	for i := range cs {
		cs[i].Value.Drop()
	}
}
