package overload

import (
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

// scope is the type assumption for one lambda-bound variable, chained to the
// enclosing scopes. Extending a scope never changes it, so a subtree walk can
// hold on to the scope it started with.
type scope struct {
	v     graph.VarID
	t     typesystem.Type
	outer *scope
}

func (s *scope) bind(v graph.VarID, t typesystem.Type) *scope {
	return &scope{v: v, t: t, outer: s}
}

func (s *scope) get(v graph.VarID) (typesystem.Type, bool) {
	for e := s; e != nil; e = e.outer {
		if e.v == v {
			return e.t, true
		}
	}
	return nil, false
}

// concrete reports whether every visible assumption is ground under subst.
func (s *scope) concrete(subst typesystem.Subst) bool {
	for e := s; e != nil; e = e.outer {
		if !typesystem.IsGround(e.t.Apply(subst)) {
			return false
		}
	}
	return true
}
