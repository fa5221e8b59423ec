package prelude

import (
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/overload"
)

// Classes lists the built-in overload classes and the builtins each groups.
var Classes = []struct {
	Name      string
	Instances []string
}{
	{Name: "add", Instances: []string{"addInt", "addFloat"}},
	{Name: "mul", Instances: []string{"mulInt", "mulFloat"}},
	{Name: "neg", Instances: []string{"negInt", "negFloat"}},
}

// RegisterClasses adds the built-in overload classes to reg.
func RegisterClasses(reg *overload.Registry) error {
	for _, c := range Classes {
		cands := make([]overload.Candidate, len(c.Instances))
		for i, name := range c.Instances {
			b := Builtins[name]
			cands[i] = overload.Candidate{Name: b.Name, Type: b.Type, Value: b.Closure()}
		}
		if _, err := reg.AddOverloading(c.Name, cands...); err != nil {
			return err
		}
	}
	return nil
}

// Overloaded adds a reference to the named built-in class.
func Overloaded(g *graph.Graph, class string) graph.NodeID {
	return g.Overloaded(overload.ClassIDOf(class), class)
}

// Env is a ready-to-use pair of frozen registries holding the prelude.
type Env struct {
	Types   *object.Registry
	Classes *overload.Registry
}

// New builds and freezes the prelude registries. Each extra function may
// register more types before the type registry is frozen.
func New(extra ...func(*object.Registry) error) (*Env, error) {
	types := object.NewRegistry()
	if err := RegisterTypes(types); err != nil {
		return nil, err
	}
	for _, register := range extra {
		if err := register(types); err != nil {
			return nil, err
		}
	}
	classes := overload.NewRegistry()
	if err := RegisterClasses(classes); err != nil {
		classes.Release()
		return nil, err
	}
	types.Freeze()
	classes.Freeze()
	return &Env{Types: types, Classes: classes}, nil
}

// Release drops the candidate closures held by the class registry.
func (e *Env) Release() { e.Classes.Release() }
