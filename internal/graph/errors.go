package graph

import (
	"fmt"

	"github.com/funvibe/nodegraph/internal/object"
)

// UnboundVariableError reports a Variable node with no enclosing binding.
type UnboundVariableError struct {
	Var  VarID
	Node NodeID
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("unbound variable %s at node %d", e.Var, e.Node)
}

// Info is the object type of a boxed graph. Dropping the last handle
// releases every value the graph holds.
var Info = func() *object.TypeInfo {
	info := object.NewTypeInfo[*Graph]("Graph")
	info.Destroy = func(v any) { v.(*Graph).Release() }
	info.Clone = func(v any) any { return v.(*Graph).Clone() }
	return info
}()

// Box places g in a reference-counted object so values that point back into
// the graph can keep it alive.
func Box(g *Graph) object.Handle[*Graph] {
	return object.Allocate(Info, g)
}
