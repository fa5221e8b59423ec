package typesystem

import "strings"

// Binding maps one type variable to its replacement.
type Binding struct {
	Var  TVar
	Type Type
}

func (b Binding) String() string {
	return b.Var.String() + " := " + b.Type.String()
}

// Subst is an ordered substitution set. It never holds two bindings for the
// same variable, and no binding's type mentions a variable bound by another
// entry, so applying it once is enough.
type Subst []Binding

// Lookup returns the replacement bound to v.
func (s Subst) Lookup(v TVar) (Type, bool) {
	for _, b := range s {
		if b.Var.ID == v.ID {
			return b.Type, true
		}
	}
	return nil, false
}

// Compose rewrites existing right-hand sides with b, then appends b unless
// its variable is already bound. The first solution for a variable wins.
// s itself is left untouched.
func (s Subst) Compose(b Binding) Subst {
	out := make(Subst, 0, len(s)+1)
	seen := false
	for _, e := range s {
		if e.Var.ID == b.Var.ID {
			seen = true
		}
		out = append(out, Binding{Var: e.Var, Type: Substitute(b, e.Type)})
	}
	if !seen {
		out = append(out, b)
	}
	return out
}

// Merge composes every binding of other into s.
func (s Subst) Merge(other Subst) Subst {
	for _, b := range other {
		s = s.Compose(Binding{Var: b.Var, Type: b.Type.Apply(s)})
	}
	return s
}

func (s Subst) String() string {
	parts := make([]string, len(s))
	for i, b := range s {
		parts[i] = b.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Substitute replaces every occurrence of b.Var in t with b.Type.
// Constructors and other variables pass through unchanged.
func Substitute(b Binding, t Type) Type {
	switch typ := t.(type) {
	case TVar:
		if typ.ID == b.Var.ID {
			return b.Type
		}
		return typ
	case TApp:
		head := Substitute(b, typ.Head)
		arg := Substitute(b, typ.Arg)
		return TApp{Head: head, Arg: arg}
	default:
		return t
	}
}

// Generalize replaces every free variable of t with a fresh one, producing a
// reusable copy that shares no variables with t.
func Generalize(t Type) Type {
	vars := t.FreeTypeVariables()
	if len(vars) == 0 {
		return t
	}
	s := make(Subst, 0, len(vars))
	for _, v := range vars {
		s = append(s, Binding{Var: v, Type: FreshVar(v.Kind())})
	}
	return t.Apply(s)
}
