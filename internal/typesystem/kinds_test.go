package typesystem

import (
	"testing"

	"github.com/funvibe/nodegraph/internal/object"
)

func TestKinds(t *testing.T) {
	// 1. Check KStar
	if Star.String() != "*" {
		t.Errorf("KStar.String() = %s, want *", Star.String())
	}

	// 2. Check Arrow
	arrow := MakeArrow(Star, Star) // * -> *
	if arrow.String() != "(* -> *)" {
		t.Errorf("Arrow string = %s, want (* -> *)", arrow.String())
	}

	// 3. Check Arrow Equality
	arrow2 := KArrow{Left: Star, Right: Star}
	if !arrow.Equal(arrow2) {
		t.Errorf("Arrows should be equal")
	}

	if arrow.Equal(Star) {
		t.Errorf("Arrow should not equal Star")
	}
}

func TestTypeKinds(t *testing.T) {
	intType := TCon{ID: object.StableID("Int"), Name: "Int", KindVal: Star}
	listCon := TCon{ID: object.StableID("List"), Name: "List", KindVal: MakeArrow(Star, Star)}
	mapCon := TCon{ID: object.StableID("Map"), Name: "Map", KindVal: MakeArrow(Star, Star, Star)}

	tVar := FreshVar(Star)
	tVarM := FreshVar(MakeArrow(Star, Star))

	tests := []struct {
		name     string
		typ      Type
		wantKind Kind
		wantErr  bool
	}{
		{name: "Int Kind", typ: intType, wantKind: Star},
		{name: "List Constructor Kind", typ: listCon, wantKind: MakeArrow(Star, Star)},
		{name: "TVar Kind", typ: tVar, wantKind: Star},
		{name: "TVarM Kind", typ: tVarM, wantKind: MakeArrow(Star, Star)},
		{name: "List Int", typ: TApp{Head: listCon, Arg: intType}, wantKind: Star},
		{name: "Map Int", typ: TApp{Head: mapCon, Arg: intType}, wantKind: MakeArrow(Star, Star)},
		{name: "m a", typ: TApp{Head: tVarM, Arg: tVar}, wantKind: Star},
		{name: "Arrow", typ: Arrow(intType, intType), wantKind: Star},
		{name: "Int applied", typ: TApp{Head: intType, Arg: intType}, wantErr: true},
		{name: "List List", typ: TApp{Head: listCon, Arg: listCon}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := KindOf(tt.typ)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected kind error for %s, got %s", tt.typ, k)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !k.Equal(tt.wantKind) {
				t.Errorf("kind of %s = %s, want %s", tt.typ, k, tt.wantKind)
			}
			if !tt.typ.Kind().Equal(tt.wantKind) {
				t.Errorf("Kind() of %s = %s, want %s", tt.typ, tt.typ.Kind(), tt.wantKind)
			}
		})
	}
}
