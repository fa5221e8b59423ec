package typesystem

import (
	"fmt"
	"strings"
)

// TypeMismatchError reports two constructor-headed types that disagree.
// Context is the constraint being solved when the mismatch surfaced.
type TypeMismatchError struct {
	Left    Type
	Right   Type
	Context Constraint
	Reason  string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("type mismatch: cannot unify %s with %s", e.Left, e.Right)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Context.Left != nil && !(Equal(e.Context.Left, e.Left) && Equal(e.Context.Right, e.Right)) {
		msg += " in " + e.Context.String()
	}
	return msg
}

// CircularConstraintError reports an occurs-check violation.
type CircularConstraintError struct {
	Var  TVar
	Type Type
}

func (e *CircularConstraintError) Error() string {
	return fmt.Sprintf("circular constraint: %s occurs in %s", e.Var, e.Type)
}

// UnsolvableConstraintsError is returned for constraints no rule applies to.
type UnsolvableConstraintsError struct {
	Constraints []Constraint
}

func (e *UnsolvableConstraintsError) Error() string {
	parts := make([]string, len(e.Constraints))
	for i, c := range e.Constraints {
		parts[i] = c.String()
	}
	return "unsolvable constraints: " + strings.Join(parts, "; ")
}
