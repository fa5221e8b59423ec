package typesystem

import "fmt"

// Kind represents the "type of a type".
// * (Star) is the kind of proper types (Int, Bool, Int -> Int).
// * -> * is the kind of type constructors awaiting one argument.
type Kind interface {
	String() string
	Equal(Kind) bool
}

// KStar represents the kind of a value type (*).
type KStar struct{}

func (k KStar) String() string { return "*" }
func (k KStar) Equal(other Kind) bool {
	_, ok := other.(KStar)
	return ok
}

// KArrow represents a higher-kinded type (k1 -> k2).
type KArrow struct {
	Left  Kind
	Right Kind
}

func (k KArrow) String() string {
	return fmt.Sprintf("(%s -> %s)", k.Left.String(), k.Right.String())
}

func (k KArrow) Equal(other Kind) bool {
	o, ok := other.(KArrow)
	if !ok {
		return false
	}
	return k.Left.Equal(o.Left) && k.Right.Equal(o.Right)
}

var Star Kind = KStar{}

// MakeArrow builds a right-nested arrow kind.
// e.g. MakeArrow(Star, Star, Star) is * -> * -> *
func MakeArrow(args ...Kind) Kind {
	if len(args) == 0 {
		return Star
	}
	if len(args) == 1 {
		return args[0]
	}
	return KArrow{Left: args[0], Right: MakeArrow(args[1:]...)}
}

// KindOf checks that t is well-kinded and returns its kind.
func KindOf(t Type) (Kind, error) {
	switch typ := t.(type) {
	case TCon:
		return typ.Kind(), nil
	case TVar:
		return typ.Kind(), nil
	case TApp:
		hk, err := KindOf(typ.Head)
		if err != nil {
			return nil, err
		}
		ak, err := KindOf(typ.Arg)
		if err != nil {
			return nil, err
		}
		arrow, ok := hk.(KArrow)
		if !ok {
			return nil, fmt.Errorf("kind mismatch: %s of kind %s applied to %s", typ.Head, hk, typ.Arg)
		}
		if !arrow.Left.Equal(ak) {
			return nil, fmt.Errorf("kind mismatch: %s expects %s, got %s of kind %s", typ.Head, arrow.Left, typ.Arg, ak)
		}
		return arrow.Right, nil
	case nil:
		return nil, fmt.Errorf("cannot check kind of nil type")
	default:
		return nil, fmt.Errorf("unknown type %T", t)
	}
}
