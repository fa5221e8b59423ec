// Package prelude provides the built-in value types, closures and overload
// classes hosts start from.
package prelude

import (
	"github.com/funvibe/nodegraph/internal/evaluator"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

var (
	IntInfo    = object.NewTypeInfo[int64]("Int")
	FloatInfo  = object.NewTypeInfo[float64]("Float")
	BoolInfo   = object.NewTypeInfo[bool]("Bool")
	StringInfo = object.NewTypeInfo[string]("String")
)

// Type constructors of the built-in value types.
var (
	Int       = typesystem.FromInfo(IntInfo)
	Float     = typesystem.FromInfo(FloatInfo)
	Bool      = typesystem.FromInfo(BoolInfo)
	String    = typesystem.FromInfo(StringInfo)
	Exception = typesystem.FromInfo(evaluator.ExceptionInfo)
)

// Bool values are immortal.
var (
	True  = object.NewStatic(BoolInfo, true)
	False = object.NewStatic(BoolInfo, false)
)

// RegisterTypes adds every type the prelude and the runtime use to reg.
func RegisterTypes(reg *object.Registry) error {
	for _, info := range []*object.TypeInfo{IntInfo, FloatInfo, BoolInfo, StringInfo, graph.Info, typesystem.TypeObjectInfo} {
		if err := reg.Register(info); err != nil {
			return err
		}
	}
	return evaluator.RegisterTypes(reg)
}

func NewInt(v int64) object.Ref { return object.Alloc(IntInfo, v) }

func NewFloat(v float64) object.Ref { return object.Alloc(FloatInfo, v) }

func NewString(v string) object.Ref { return object.Alloc(StringInfo, v) }

func NewBool(v bool) object.Ref {
	if v {
		return True
	}
	return False
}

func AsInt(r object.Ref) (int64, bool) {
	if !r.Is(IntInfo) {
		return 0, false
	}
	return object.Unbox[int64](r)
}

func AsFloat(r object.Ref) (float64, bool) {
	if !r.Is(FloatInfo) {
		return 0, false
	}
	return object.Unbox[float64](r)
}

func AsBool(r object.Ref) (bool, bool) {
	if !r.Is(BoolInfo) {
		return false, false
	}
	return object.Unbox[bool](r)
}

func AsString(r object.Ref) (string, bool) {
	if !r.Is(StringInfo) {
		return "", false
	}
	return object.Unbox[string](r)
}
