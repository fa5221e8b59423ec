package typesystem

// Match reports whether specific is an instance of general: it returns the
// substitution over general's variables that turns general into specific.
// Variables of specific are treated as rigid.
func Match(general, specific Type) (Subst, bool) {
	var s Subst
	ok := match(general, specific, &s)
	return s, ok
}

func match(g, t Type, s *Subst) bool {
	switch gt := g.(type) {
	case TVar:
		if bound, ok := s.Lookup(gt); ok {
			return Equal(bound, t)
		}
		k, err := KindOf(t)
		if err != nil || !gt.Kind().Equal(k) {
			return false
		}
		*s = append(*s, Binding{Var: gt, Type: t})
		return true
	case TCon:
		return Equal(gt, t)
	case TApp:
		tt, ok := t.(TApp)
		return ok && match(gt.Head, tt.Head, s) && match(gt.Arg, tt.Arg, s)
	default:
		return false
	}
}

// Specializes reports whether specific is an instance of a fresh copy of
// general.
func Specializes(general, specific Type) bool {
	_, ok := Match(Generalize(general), specific)
	return ok
}

// AntiUnify returns the least general type of which every given type is an
// instance. Positions where the types disagree become variables; the same
// disagreement always maps to the same variable, so Int -> Int and
// Float -> Float generalize to a -> a rather than a -> b.
func AntiUnify(types ...Type) Type {
	if len(types) == 0 {
		return FreshVar(Star)
	}
	var seen []disagreement
	return antiUnify(types, &seen)
}

type disagreement struct {
	types []Type
	v     TVar
}

func antiUnify(types []Type, seen *[]disagreement) Type {
	first := types[0]
	same := true
	apps := true
	for _, t := range types {
		if !Equal(first, t) {
			same = false
		}
		if _, ok := t.(TApp); !ok {
			apps = false
		}
	}
	if same {
		return first
	}
	if apps {
		heads := make([]Type, len(types))
		args := make([]Type, len(types))
		for i, t := range types {
			app := t.(TApp)
			heads[i], args[i] = app.Head, app.Arg
		}
		headKinds := true
		for _, h := range heads[1:] {
			if !h.Kind().Equal(heads[0].Kind()) {
				headKinds = false
				break
			}
		}
		if headKinds {
			return TApp{Head: antiUnify(heads, seen), Arg: antiUnify(args, seen)}
		}
	}
	for _, d := range *seen {
		if equalAll(d.types, types) {
			return d.v
		}
	}
	v := FreshVar(first.Kind())
	*seen = append(*seen, disagreement{types: types, v: v})
	return v
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
