package typesystem

import (
	"errors"
	"testing"

	"github.com/funvibe/nodegraph/internal/object"
)

var (
	tInt   = TCon{ID: object.StableID("Int"), Name: "Int"}
	tFloat = TCon{ID: object.StableID("Float"), Name: "Float"}
	tBool  = TCon{ID: object.StableID("Bool"), Name: "Bool"}
	tList  = TCon{ID: object.StableID("List"), Name: "List", KindVal: MakeArrow(Star, Star)}
)

func listOf(t Type) Type { return TApp{Head: tList, Arg: t} }

func mustUnify(t *testing.T, cs ...Constraint) Subst {
	t.Helper()
	s, err := Unify(cs)
	if err != nil {
		t.Fatalf("unify %v: %v", cs, err)
	}
	return s
}

func expectBound(t *testing.T, s Subst, v TVar, want Type) {
	t.Helper()
	got, ok := s.Lookup(v)
	if !ok {
		t.Fatalf("%s not bound in %s", v, s)
	}
	if !Equal(got, want) {
		t.Errorf("%s bound to %s, want %s", v, got, want)
	}
}

func TestEqualIsAnEquivalence(t *testing.T) {
	x := FreshVar(Star)
	samples := []Type{
		tInt, tFloat, x, Arrow(x, tInt), listOf(Arrow(tInt, x)),
		Func(tInt, tFloat, listOf(tBool)),
	}
	for _, a := range samples {
		if !Equal(a, a) {
			t.Errorf("Equal(%s, %s) should be reflexive", a, a)
		}
		if !Equal(Generalize(tInt), tInt) {
			t.Errorf("ground types survive Generalize")
		}
		copied := a.Apply(nil)
		if !Equal(copied, a) {
			t.Errorf("copy of %s differs", a)
		}
		for _, b := range samples {
			if Equal(a, b) != Equal(b, a) {
				t.Errorf("Equal not symmetric for %s, %s", a, b)
			}
			for _, c := range samples {
				if Equal(a, b) && Equal(b, c) && !Equal(a, c) {
					t.Errorf("Equal not transitive for %s, %s, %s", a, b, c)
				}
			}
		}
	}
	if Equal(tInt, tFloat) {
		t.Errorf("Int should differ from Float")
	}
	if Equal(FreshVar(Star), FreshVar(Star)) {
		t.Errorf("fresh variables should be distinct")
	}
}

func TestUnifyVariableWithConstant(t *testing.T) {
	x := FreshVar(Star)
	cs := []Constraint{{Left: x, Right: tInt}}
	s := mustUnify(t, cs...)
	if len(s) != 1 {
		t.Fatalf("expected a single binding, got %s", s)
	}
	expectBound(t, s, x, tInt)

	// Applying the solution reaches a fixed point.
	applied := make([]Constraint, len(cs))
	for i, c := range cs {
		applied[i] = Constraint{Left: c.Left.Apply(s), Right: c.Right.Apply(s)}
	}
	again := mustUnify(t, applied...)
	if len(again) != 0 {
		t.Errorf("expected empty substitution, got %s", again)
	}
}

func TestUnifyArrows(t *testing.T) {
	x, y := FreshVar(Star), FreshVar(Star)
	s := mustUnify(t, Constraint{Left: Arrow(tInt, tInt), Right: Arrow(x, y)})
	if len(s) != 2 {
		t.Fatalf("expected two bindings, got %s", s)
	}
	expectBound(t, s, x, tInt)
	expectBound(t, s, y, tInt)
}

func TestUnifyPropagatesThroughRemainingConstraints(t *testing.T) {
	x, y, z := FreshVar(Star), FreshVar(Star), FreshVar(Star)
	s := mustUnify(t,
		Constraint{Left: x, Right: Arrow(y, z)},
		Constraint{Left: y, Right: tInt},
		Constraint{Left: z, Right: listOf(y)},
	)
	expectBound(t, s, x, Arrow(tInt, listOf(tInt)))
	expectBound(t, s, y, tInt)
	expectBound(t, s, z, listOf(tInt))
	for _, b := range s {
		if !IsGround(b.Type) {
			t.Errorf("binding %s should be ground", b)
		}
	}
}

func TestUnifyCircular(t *testing.T) {
	x := FreshVar(Star)
	_, err := UnifyTypes(x, Arrow(x, tInt))
	var circ *CircularConstraintError
	if !errors.As(err, &circ) {
		t.Fatalf("expected CircularConstraintError, got %v", err)
	}
	if circ.Var != x {
		t.Errorf("circular variable = %s, want %s", circ.Var, x)
	}
}

func TestUnifyMismatch(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
	}{
		{"constants", tInt, tBool},
		{"arrow vs constant", Arrow(tInt, tInt), tInt},
		{"arrow results", Arrow(tInt, tInt), Arrow(tInt, tFloat)},
		{"list vs arrow", listOf(tInt), Arrow(tInt, tInt)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnifyTypes(tt.a, tt.b)
			var mm *TypeMismatchError
			if !errors.As(err, &mm) {
				t.Fatalf("expected TypeMismatchError, got %v", err)
			}
		})
	}
}

func TestUnifyKindMismatch(t *testing.T) {
	f := FreshVar(MakeArrow(Star, Star))
	_, err := UnifyTypes(f, tInt)
	var mm *TypeMismatchError
	if !errors.As(err, &mm) {
		t.Fatalf("expected kind mismatch, got %v", err)
	}
}

func TestUnifyHigherKindedHead(t *testing.T) {
	f := FreshVar(MakeArrow(Star, Star))
	a := FreshVar(Star)
	s := mustUnify(t, Constraint{Left: TApp{Head: f, Arg: a}, Right: listOf(tInt)})
	expectBound(t, s, f, tList)
	expectBound(t, s, a, tInt)

	_, err := UnifyTypes(TApp{Head: f, Arg: a}, tInt)
	var unsolvable *UnsolvableConstraintsError
	if !errors.As(err, &unsolvable) {
		t.Fatalf("expected UnsolvableConstraintsError, got %v", err)
	}
}

func TestComposeFirstSolvedWins(t *testing.T) {
	x, y := FreshVar(Star), FreshVar(Star)
	s := Subst{}.Compose(Binding{Var: x, Type: Arrow(y, y)})
	s = s.Compose(Binding{Var: y, Type: tInt})
	s = s.Compose(Binding{Var: x, Type: tBool})

	if len(s) != 2 {
		t.Fatalf("expected two bindings, got %s", s)
	}
	expectBound(t, s, x, Arrow(tInt, tInt))
	expectBound(t, s, y, tInt)
}

func TestSubstitute(t *testing.T) {
	x, y := FreshVar(Star), FreshVar(Star)
	got := Substitute(Binding{Var: x, Type: tInt}, Func(x, y, listOf(x)))
	want := Func(tInt, y, listOf(tInt))
	if !Equal(got, want) {
		t.Errorf("Substitute = %s, want %s", got, want)
	}
	if !Occurs(y, got) || Occurs(x, got) {
		t.Errorf("unexpected variables in %s", got)
	}
}

func TestGeneralize(t *testing.T) {
	x := FreshVar(Star)
	scheme := Arrow(x, x)
	g := Generalize(scheme)
	if Equal(g, scheme) {
		t.Fatalf("generalized %s should use fresh variables", scheme)
	}
	p, r, ok := SplitArrow(g)
	if !ok || !Equal(p, r) {
		t.Errorf("generalized %s should keep sharing, got %s", scheme, g)
	}
	if Occurs(x, g) {
		t.Errorf("%s still mentions %s", g, x)
	}
}

func TestMatch(t *testing.T) {
	a := FreshVar(Star)
	if _, ok := Match(Arrow(a, a), Arrow(tInt, tInt)); !ok {
		t.Errorf("Int -> Int should be an instance of a -> a")
	}
	if _, ok := Match(Arrow(a, a), Arrow(tInt, tBool)); ok {
		t.Errorf("Int -> Bool should not be an instance of a -> a")
	}
	if !Specializes(Arrow(tInt, tInt), Arrow(tInt, tInt)) {
		t.Errorf("a ground type specializes itself")
	}
	// Variables on the specific side are rigid.
	b := FreshVar(Star)
	if Specializes(Arrow(tInt, tInt), Arrow(b, tInt)) {
		t.Errorf("b -> Int should not be an instance of Int -> Int")
	}
}

func TestAntiUnify(t *testing.T) {
	g := AntiUnify(Arrow(tInt, tInt), Arrow(tFloat, tFloat))
	p, r, ok := SplitArrow(g)
	if !ok {
		t.Fatalf("expected an arrow, got %s", g)
	}
	if _, isVar := p.(TVar); !isVar || !Equal(p, r) {
		t.Errorf("expected a -> a, got %s", g)
	}

	g = AntiUnify(Func(tInt, tInt, tBool), Func(tFloat, tFloat, tBool))
	if !Specializes(g, Func(tInt, tInt, tBool)) || Specializes(g, Func(tInt, tFloat, tBool)) {
		t.Errorf("unexpected generalization %s", g)
	}

	if got := AntiUnify(tInt, tInt); !Equal(got, tInt) {
		t.Errorf("AntiUnify of equal types = %s", got)
	}
}

func TestTypeStrings(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Arrow(tInt, tFloat), "Int -> Float"},
		{Func(tInt, tInt, tInt), "Int -> Int -> Int"},
		{Arrow(Arrow(tInt, tInt), tInt), "(Int -> Int) -> Int"},
		{listOf(listOf(tInt)), "List (List Int)"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestTypeObject(t *testing.T) {
	ref := NewTypeObject(Arrow(tInt, tInt))
	defer ref.Drop()
	got, ok := object.Unbox[Type](ref)
	if !ok || !Equal(got, Arrow(tInt, tInt)) {
		t.Errorf("boxed type = %v", got)
	}
	if !ref.Is(TypeObjectInfo) {
		t.Errorf("expected boxed type to carry TypeObjectInfo")
	}
}
