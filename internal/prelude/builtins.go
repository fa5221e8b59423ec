package prelude

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/funvibe/nodegraph/internal/evaluator"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

// Builtin is a native function with its declared type.
type Builtin struct {
	Name  string
	Type  typesystem.Type
	Arity int
	Fn    evaluator.Impl
}

// Closure allocates a fresh closure for the builtin.
func (b *Builtin) Closure() object.Ref {
	return evaluator.NewClosure(b.Name, b.Arity, b.Fn)
}

var Builtins = map[string]*Builtin{
	// Arithmetic
	"addInt":   {Name: "addInt", Type: typesystem.Func(Int, Int, Int), Arity: 2, Fn: builtinAddInt},
	"addFloat": {Name: "addFloat", Type: typesystem.Func(Float, Float, Float), Arity: 2, Fn: builtinAddFloat},
	"mulInt":   {Name: "mulInt", Type: typesystem.Func(Int, Int, Int), Arity: 2, Fn: builtinMulInt},
	"mulFloat": {Name: "mulFloat", Type: typesystem.Func(Float, Float, Float), Arity: 2, Fn: builtinMulFloat},
	"negInt":   {Name: "negInt", Type: typesystem.Func(Int, Int), Arity: 1, Fn: builtinNegInt},
	"negFloat": {Name: "negFloat", Type: typesystem.Func(Float, Float), Arity: 1, Fn: builtinNegFloat},
	"divInt":   {Name: "divInt", Type: typesystem.Func(Int, Int, Int), Arity: 2, Fn: builtinDivInt},
	"double":   {Name: "double", Type: typesystem.Func(Int, Int), Arity: 1, Fn: builtinDouble},

	// Logic
	"not": {Name: "not", Type: typesystem.Func(Bool, Bool), Arity: 1, Fn: builtinNot},

	// Conversion
	"showInt": {Name: "showInt", Type: typesystem.Func(Int, String), Arity: 1, Fn: builtinShowInt},
}

// Names returns the builtin names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Builtins))
	for name := range Builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ref adds a Value node holding a fresh closure for the named builtin.
func Ref(g *graph.Graph, name string) (graph.NodeID, error) {
	b, ok := Builtins[name]
	if !ok {
		return graph.None, fmt.Errorf("unknown builtin %q", name)
	}
	return g.NamedValue(b.Name, b.Closure(), b.Type), nil
}

// MustRef is Ref for names known to exist.
func MustRef(g *graph.Graph, name string) graph.NodeID {
	id, err := Ref(g, name)
	if err != nil {
		panic(err)
	}
	return id
}

func IntNode(g *graph.Graph, v int64) graph.NodeID {
	return g.NamedValue(strconv.FormatInt(v, 10), NewInt(v), Int)
}

func FloatNode(g *graph.Graph, v float64) graph.NodeID {
	return g.NamedValue(strconv.FormatFloat(v, 'g', -1, 64), NewFloat(v), Float)
}

func BoolNode(g *graph.Graph, v bool) graph.NodeID {
	return g.NamedValue(strconv.FormatBool(v), NewBool(v), Bool)
}

func StringNode(g *graph.Graph, v string) graph.NodeID {
	return g.NamedValue(strconv.Quote(v), NewString(v), String)
}

func ints(name string, args []object.Ref) ([]int64, object.Ref) {
	out := make([]int64, len(args))
	for i, arg := range args {
		a, err := evaluator.Force(arg)
		if err != nil {
			return nil, evaluator.ThrowError(err)
		}
		v, ok := AsInt(a)
		if !ok {
			return nil, evaluator.Throw("%s expects Int arguments, got %s", name, a.Info().Name)
		}
		out[i] = v
	}
	return out, object.Ref{}
}

func floats(name string, args []object.Ref) ([]float64, object.Ref) {
	out := make([]float64, len(args))
	for i, arg := range args {
		a, err := evaluator.Force(arg)
		if err != nil {
			return nil, evaluator.ThrowError(err)
		}
		v, ok := AsFloat(a)
		if !ok {
			return nil, evaluator.Throw("%s expects Float arguments, got %s", name, a.Info().Name)
		}
		out[i] = v
	}
	return out, object.Ref{}
}

func builtinAddInt(args []object.Ref) object.Ref {
	v, exc := ints("addInt", args)
	if v == nil {
		return exc
	}
	return NewInt(v[0] + v[1])
}

func builtinAddFloat(args []object.Ref) object.Ref {
	v, exc := floats("addFloat", args)
	if v == nil {
		return exc
	}
	return NewFloat(v[0] + v[1])
}

func builtinMulInt(args []object.Ref) object.Ref {
	v, exc := ints("mulInt", args)
	if v == nil {
		return exc
	}
	return NewInt(v[0] * v[1])
}

func builtinMulFloat(args []object.Ref) object.Ref {
	v, exc := floats("mulFloat", args)
	if v == nil {
		return exc
	}
	return NewFloat(v[0] * v[1])
}

func builtinNegInt(args []object.Ref) object.Ref {
	v, exc := ints("negInt", args)
	if v == nil {
		return exc
	}
	return NewInt(-v[0])
}

func builtinNegFloat(args []object.Ref) object.Ref {
	v, exc := floats("negFloat", args)
	if v == nil {
		return exc
	}
	return NewFloat(-v[0])
}

func builtinDivInt(args []object.Ref) object.Ref {
	v, exc := ints("divInt", args)
	if v == nil {
		return exc
	}
	if v[1] == 0 {
		return evaluator.Throw("division by zero: %d / 0", v[0])
	}
	return NewInt(v[0] / v[1])
}

func builtinDouble(args []object.Ref) object.Ref {
	v, exc := ints("double", args)
	if v == nil {
		return exc
	}
	return NewInt(v[0] * 2)
}

func builtinNot(args []object.Ref) object.Ref {
	a, err := evaluator.Force(args[0])
	if err != nil {
		return evaluator.ThrowError(err)
	}
	b, ok := AsBool(a)
	if !ok {
		return evaluator.Throw("not expects Bool, got %s", a.Info().Name)
	}
	return NewBool(!b)
}

func builtinShowInt(args []object.Ref) object.Ref {
	v, exc := ints("showInt", args)
	if v == nil {
		return exc
	}
	return NewString(strconv.FormatInt(v[0], 10))
}
