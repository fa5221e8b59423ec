// Package diagnostics turns the typed errors of the compiler and evaluator
// into coded, printable diagnostics.
package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/nodegraph/internal/evaluator"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/overload"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

type ErrorCode string

// Graph (compile-time) errors
const (
	ErrG001 ErrorCode = "G001" // type mismatch
	ErrG002 ErrorCode = "G002" // circular constraint
	ErrG003 ErrorCode = "G003" // unsolvable constraints
	ErrG004 ErrorCode = "G004" // unbound variable
	ErrG005 ErrorCode = "G005" // no valid overloading
	ErrG006 ErrorCode = "G006" // overlapping instance
	ErrG007 ErrorCode = "G007" // unknown overload class
	ErrG999 ErrorCode = "G999" // other compile failure
)

// Runtime errors
const (
	ErrR001 ErrorCode = "R001" // runtime exception
	ErrR002 ErrorCode = "R002" // not callable
	ErrR003 ErrorCode = "R003" // unresolved overload
)

var descriptions = map[ErrorCode]string{
	ErrG001: "type mismatch",
	ErrG002: "circular constraint",
	ErrG003: "unsolvable constraints",
	ErrG004: "unbound variable",
	ErrG005: "no valid overloading",
	ErrG006: "overlapping instance",
	ErrG007: "unknown overload class",
	ErrG999: "compile error",
	ErrR001: "runtime exception",
	ErrR002: "not callable",
	ErrR003: "unresolved overload",
}

func (c ErrorCode) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return "error"
}

// IsRuntime reports whether the code belongs to an evaluation failure.
func (c ErrorCode) IsRuntime() bool { return len(c) > 0 && c[0] == 'R' }

// DiagnosticError is one reported problem. Node is the input-graph node it
// concerns, or graph.None.
type DiagnosticError struct {
	Code    ErrorCode
	Node    graph.NodeID
	Message string
	Err     error
}

func NewError(code ErrorCode, node graph.NodeID, format string, args ...any) *DiagnosticError {
	return &DiagnosticError{Code: code, Node: node, Message: fmt.Sprintf(format, args...)}
}

func (e *DiagnosticError) Error() string {
	if e.Node != graph.None {
		return fmt.Sprintf("error [%s] at node %d: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("error [%s]: %s", e.Code, e.Message)
}

func (e *DiagnosticError) Unwrap() error { return e.Err }

// FromError flattens err, which may be joined, into diagnostics.
func FromError(err error) []*DiagnosticError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*DiagnosticError
		for _, e := range joined.Unwrap() {
			out = append(out, FromError(e)...)
		}
		return out
	}
	// look through a wrapper around a joined error
	if inner := errors.Unwrap(err); inner != nil {
		if _, ok := inner.(interface{ Unwrap() []error }); ok {
			return FromError(inner)
		}
	}
	var d *DiagnosticError
	if errors.As(err, &d) {
		return []*DiagnosticError{d}
	}
	return []*DiagnosticError{classify(err)}
}

func classify(err error) *DiagnosticError {
	node := graph.None
	var site *overload.SiteError
	if errors.As(err, &site) {
		node = site.Origin
	}
	d := &DiagnosticError{Node: node, Message: err.Error(), Err: err}
	if site != nil {
		d.Message = site.Err.Error()
	}

	var (
		mismatch   *typesystem.TypeMismatchError
		circular   *typesystem.CircularConstraintError
		unsolvable *typesystem.UnsolvableConstraintsError
		unbound    *graph.UnboundVariableError
		noMatch    *overload.NoValidOverloadingError
		overlap    *overload.OverlappingInstanceError
		unknown    *overload.UnknownClassError
		runtime    *evaluator.RuntimeException
		notFn      *evaluator.NotCallableError
		unresolved *evaluator.UnresolvedOverloadError
	)
	switch {
	case errors.As(err, &mismatch):
		d.Code = ErrG001
	case errors.As(err, &circular):
		d.Code = ErrG002
	case errors.As(err, &unsolvable):
		d.Code = ErrG003
	case errors.As(err, &unbound):
		d.Code, d.Node = ErrG004, unbound.Node
	case errors.As(err, &noMatch):
		d.Code, d.Node = ErrG005, noMatch.Node
	case errors.As(err, &overlap):
		d.Code = ErrG006
	case errors.As(err, &unknown):
		d.Code, d.Node = ErrG007, unknown.Node
	case errors.As(err, &runtime):
		d.Code, d.Node = ErrR001, runtime.Node
		d.Message = runtime.Message
	case errors.As(err, &notFn):
		d.Code, d.Node = ErrR002, notFn.Node
	case errors.As(err, &unresolved):
		d.Code, d.Node = ErrR003, unresolved.Node
	default:
		d.Code = ErrG999
	}
	return d
}
