package evaluator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/nodegraph/internal/graph"
)

// StackFrame is one closure invocation active when an exception was raised.
type StackFrame struct {
	Name string
	Node graph.NodeID
}

// RuntimeException is raised when closure code returns an Exception value.
type RuntimeException struct {
	Message    string
	Cause      error
	Node       graph.NodeID
	StackTrace []StackFrame
}

func (e *RuntimeException) Error() string {
	msg := "runtime exception: " + e.Message
	if len(e.StackTrace) > 0 {
		// innermost frame first
		frames := make([]string, 0, len(e.StackTrace))
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			f := e.StackTrace[i]
			frames = append(frames, fmt.Sprintf("%s@%d", f.Name, f.Node))
		}
		msg += " (in " + strings.Join(frames, " <- ") + ")"
	}
	return msg
}

func (e *RuntimeException) Unwrap() error { return e.Cause }

// NotCallableError reports an argument applied to a value that is not a closure.
type NotCallableError struct {
	Value string
	Node  graph.NodeID
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("cannot apply non-function value %s at node %d", e.Value, e.Node)
}

// UnresolvedOverloadError reports an Overloaded node reaching the evaluator.
type UnresolvedOverloadError struct {
	Label string
	Node  graph.NodeID
}

func (e *UnresolvedOverloadError) Error() string {
	return fmt.Sprintf("overloaded reference %q at node %d was never resolved", e.Label, e.Node)
}

// isEvaluationError reports whether err came from reducing a node rather than
// from closure code.
func isEvaluationError(err error) bool {
	var (
		rt *RuntimeException
		nc *NotCallableError
		uo *UnresolvedOverloadError
		ub *graph.UnboundVariableError
	)
	return errors.As(err, &rt) || errors.As(err, &nc) || errors.As(err, &uo) || errors.As(err, &ub)
}
