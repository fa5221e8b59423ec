package overload

import (
	"fmt"

	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

// OverlappingInstanceError reports two candidates of one class whose types
// unify, so some call could not tell them apart.
type OverlappingInstanceError struct {
	Class  string
	First  Candidate
	Second Candidate
}

func (e *OverlappingInstanceError) Error() string {
	return fmt.Sprintf("overlapping instances in %s: %s and %s", e.Class, e.First, e.Second)
}

// NoValidOverloadingError reports an occurrence no candidate fits. Ambiguous
// is set when several candidates still fit once inference has finished.
type NoValidOverloadingError struct {
	Class     string
	Type      typesystem.Type
	Node      graph.NodeID
	Ambiguous bool
	Matches   []string
}

func (e *NoValidOverloadingError) Error() string {
	if e.Ambiguous {
		return fmt.Sprintf("ambiguous use of %s at node %d: type %s does not pick a single instance", e.Class, e.Node, e.Type)
	}
	return fmt.Sprintf("no instance of %s matches %s at node %d", e.Class, e.Type, e.Node)
}

// UnknownClassError reports an Overloaded node naming a class missing from
// the registry.
type UnknownClassError struct {
	Class graph.ClassID
	Label string
	Node  graph.NodeID
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("unknown overload class %s (%s) at node %d", e.Label, e.Class, e.Node)
}

// SiteError attaches the graph node being checked to a unification failure.
// Node is an id in the resolved graph; Origin is the id in the input graph.
type SiteError struct {
	Node   graph.NodeID
	Origin graph.NodeID
	Err    error
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("node %d: %v", e.Origin, e.Err)
}

func (e *SiteError) Unwrap() error { return e.Err }
