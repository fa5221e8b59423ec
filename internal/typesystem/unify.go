package typesystem

// Constraint is a pair of types awaiting unification.
type Constraint struct {
	Left  Type
	Right Type
}

func (c Constraint) String() string {
	return c.Left.String() + " ~ " + c.Right.String()
}

type pending struct {
	Constraint
	origin Constraint
}

// Unify solves the constraints and returns the most general substitution that
// makes both sides of each constraint equal.
//
// Constraints are popped one at a time: equal sides are dropped, a variable
// not occurring in the other side is bound and substituted into everything
// left, two applications decompose into head and argument constraints.
// Every binding removes a variable for good, so the loop terminates.
func Unify(constraints []Constraint) (Subst, error) {
	work := make([]pending, 0, len(constraints))
	for i := len(constraints) - 1; i >= 0; i-- {
		c := constraints[i]
		work = append(work, pending{Constraint: c, origin: c})
	}

	var s Subst
	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]
		l, r := c.Left, c.Right

		if l == nil || r == nil {
			return nil, &UnsolvableConstraintsError{Constraints: []Constraint{c.Constraint}}
		}
		if Equal(l, r) {
			continue
		}

		v, isVar := l.(TVar)
		other := r
		if !isVar {
			v, isVar = r.(TVar)
			other = l
		}
		if isVar {
			b, err := bind(v, other, c.origin)
			if err != nil {
				return nil, err
			}
			s = s.Compose(b)
			for i := range work {
				work[i].Left = Substitute(b, work[i].Left)
				work[i].Right = Substitute(b, work[i].Right)
				work[i].origin = Constraint{
					Left:  Substitute(b, work[i].origin.Left),
					Right: Substitute(b, work[i].origin.Right),
				}
			}
			continue
		}

		la, lok := l.(TApp)
		ra, rok := r.(TApp)
		if lok && rok {
			// Argument is pushed first so heads are solved first.
			work = append(work,
				pending{Constraint: Constraint{Left: la.Arg, Right: ra.Arg}, origin: c.origin},
				pending{Constraint: Constraint{Left: la.Head, Right: ra.Head}, origin: c.origin},
			)
			continue
		}

		lh, _ := Spine(l)
		rh, _ := Spine(r)
		_, lcon := lh.(TCon)
		_, rcon := rh.(TCon)
		if lcon && rcon {
			return nil, &TypeMismatchError{Left: l, Right: r, Context: c.origin}
		}
		return nil, &UnsolvableConstraintsError{Constraints: []Constraint{c.Constraint}}
	}
	return s, nil
}

// UnifyTypes unifies a single pair of types.
func UnifyTypes(t1, t2 Type) (Subst, error) {
	return Unify([]Constraint{{Left: t1, Right: t2}})
}

// bind binds a type variable to a type, performing the occurs and kind checks.
func bind(v TVar, t Type, origin Constraint) (Binding, error) {
	if Occurs(v, t) {
		return Binding{}, &CircularConstraintError{Var: v, Type: t}
	}
	k, err := KindOf(t)
	if err != nil {
		return Binding{}, &TypeMismatchError{Left: v, Right: t, Context: origin, Reason: err.Error()}
	}
	if !v.Kind().Equal(k) {
		return Binding{}, &TypeMismatchError{
			Left: v, Right: t, Context: origin,
			Reason: "kind " + v.Kind().String() + " vs " + k.String(),
		}
	}
	return Binding{Var: v, Type: t}, nil
}
