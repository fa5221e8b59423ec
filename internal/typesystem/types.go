package typesystem

import (
	"encoding/hex"
	"strings"

	"github.com/funvibe/nodegraph/internal/object"
	"github.com/google/uuid"
)

// Type is the interface for all type terms. Terms are immutable values and
// compare structurally through Equal.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
	Kind() Kind
}

// TCon is a type constructor identified by a stable id (e.g. Int, ->).
// Name is for display only.
type TCon struct {
	ID      uuid.UUID
	Name    string
	KindVal Kind
}

func (t TCon) String() string { return t.Name }

func (t TCon) Kind() Kind {
	if t.KindVal == nil {
		return Star
	}
	return t.KindVal
}

func (t TCon) Apply(Subst) Type { return t }

func (t TCon) FreeTypeVariables() []TVar { return nil }

// TApp applies a type constructor to one argument. Multi-argument
// constructors are curried: Arrow(a, b) is TApp{TApp{->, a}, b}.
type TApp struct {
	Head Type
	Arg  Type
}

func (t TApp) Kind() Kind {
	if arrow, ok := t.Head.Kind().(KArrow); ok {
		return arrow.Right
	}
	return Star
}

func (t TApp) Apply(s Subst) Type {
	if len(s) == 0 {
		return t
	}
	return TApp{Head: t.Head.Apply(s), Arg: t.Arg.Apply(s)}
}

func (t TApp) FreeTypeVariables() []TVar {
	return uniqueTVars(append(t.Head.FreeTypeVariables(), t.Arg.FreeTypeVariables()...))
}

func (t TApp) String() string {
	if param, result, ok := SplitArrow(t); ok {
		ps := param.String()
		if _, _, nested := SplitArrow(param); nested {
			ps = "(" + ps + ")"
		}
		return ps + " -> " + result.String()
	}
	head, args := Spine(t)
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, head.String())
	for _, a := range args {
		s := a.String()
		if _, ok := a.(TApp); ok {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// TVar is a type variable. Ids are random, so two independently created
// variables never collide.
type TVar struct {
	ID      uuid.UUID
	KindVal Kind
}

func (t TVar) String() string {
	return "t" + hex.EncodeToString(t.ID[:3])
}

func (t TVar) Kind() Kind {
	if t.KindVal == nil {
		return Star
	}
	return t.KindVal
}

func (t TVar) Apply(s Subst) Type {
	if replacement, ok := s.Lookup(t); ok {
		return replacement
	}
	return t
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// FreshVar returns a globally unique type variable of the given kind.
func FreshVar(kind Kind) TVar {
	return TVar{ID: uuid.New(), KindVal: kind}
}

// Equal compares two type terms structurally: constructors and variables by
// id, applications recursively.
func Equal(t1, t2 Type) bool {
	switch a := t1.(type) {
	case TCon:
		b, ok := t2.(TCon)
		// uuid.UUID is a [16]byte; array comparison compiles to a wide compare.
		return ok && a.ID == b.ID
	case TVar:
		b, ok := t2.(TVar)
		return ok && a.ID == b.ID
	case TApp:
		b, ok := t2.(TApp)
		return ok && Equal(a.Head, b.Head) && Equal(a.Arg, b.Arg)
	case nil:
		return t2 == nil
	default:
		return false
	}
}

// Occurs reports whether v appears anywhere inside t.
func Occurs(v TVar, t Type) bool {
	switch typ := t.(type) {
	case TVar:
		return typ.ID == v.ID
	case TApp:
		return Occurs(v, typ.Head) || Occurs(v, typ.Arg)
	default:
		return false
	}
}

// IsGround reports whether t contains no type variables.
func IsGround(t Type) bool {
	switch typ := t.(type) {
	case TVar:
		return false
	case TApp:
		return IsGround(typ.Head) && IsGround(typ.Arg)
	default:
		return true
	}
}

// Spine splits t into its head and arguments, left to right.
func Spine(t Type) (Type, []Type) {
	var args []Type
	for {
		app, ok := t.(TApp)
		if !ok {
			break
		}
		args = append(args, app.Arg)
		t = app.Head
	}
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	return t, args
}

// ArrowCon is the function type constructor.
var ArrowCon = TCon{ID: object.StableID("->"), Name: "->", KindVal: MakeArrow(Star, Star, Star)}

// Arrow builds the function type param -> result.
func Arrow(param, result Type) Type {
	return TApp{Head: TApp{Head: ArrowCon, Arg: param}, Arg: result}
}

// Func builds a curried function type; the last element is the result.
// Func(a, b, c) is a -> b -> c.
func Func(types ...Type) Type {
	if len(types) == 0 {
		panic("typesystem: Func needs at least a result type")
	}
	t := types[len(types)-1]
	for i := len(types) - 2; i >= 0; i-- {
		t = Arrow(types[i], t)
	}
	return t
}

// SplitArrow returns the parameter and result of a function type.
func SplitArrow(t Type) (param, result Type, ok bool) {
	outer, ok := t.(TApp)
	if !ok {
		return nil, nil, false
	}
	inner, ok := outer.Head.(TApp)
	if !ok {
		return nil, nil, false
	}
	con, ok := inner.Head.(TCon)
	if !ok || con.ID != ArrowCon.ID {
		return nil, nil, false
	}
	return inner.Arg, outer.Arg, true
}

// FromInfo returns the nullary constructor for a registered object type.
func FromInfo(info *object.TypeInfo) TCon {
	return TCon{ID: info.ID, Name: info.Name, KindVal: Star}
}

// ConstructorOf returns a constructor of the given kind for a registered type.
func ConstructorOf(info *object.TypeInfo, kind Kind) TCon {
	return TCon{ID: info.ID, Name: info.Name, KindVal: kind}
}

// TypeObjectInfo is the object type of boxed type terms.
var TypeObjectInfo = object.NewTypeInfo[Type]("Type")

// NewTypeObject boxes t as a runtime object.
func NewTypeObject(t Type) object.Ref {
	return object.Alloc(TypeObjectInfo, t)
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[uuid.UUID]bool{}
	for _, v := range vars {
		if !seen[v.ID] {
			seen[v.ID] = true
			unique = append(unique, v)
		}
	}
	return unique
}
