// Package graph holds the expression graph a compiled node network is lowered
// to: an arena of Apply, Lambda, Variable, Value and Overloaded nodes
// addressed by NodeID.
//
// Apply nodes carry a memo slot. Once the evaluator stores a result there
// the node behaves as that value and is never reduced again.
package graph

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/typesystem"
	"github.com/google/uuid"
)

type NodeID int32

// None marks an absent node.
const None NodeID = -1

// VarID names a lambda-bound variable. Ids are unique per process, so
// substitution never needs capture avoidance.
type VarID uint64

var lastVar atomic.Uint64

func NewVar() VarID {
	return VarID(lastVar.Add(1))
}

func (v VarID) String() string { return fmt.Sprintf("v%d", uint64(v)) }

// ClassID identifies a registered overload class.
type ClassID uuid.UUID

func (c ClassID) String() string { return uuid.UUID(c).String() }

type NodeKind uint8

const (
	KindApply NodeKind = iota
	KindLambda
	KindVariable
	KindValue
	KindOverloaded
)

func (k NodeKind) String() string {
	switch k {
	case KindApply:
		return "apply"
	case KindLambda:
		return "lambda"
	case KindVariable:
		return "variable"
	case KindValue:
		return "value"
	case KindOverloaded:
		return "overloaded"
	default:
		return "unknown"
	}
}

// Node is one arena cell. Which fields are meaningful depends on Kind:
//
//	Apply:      Fn, Arg; Value once resolved
//	Lambda:     Var, Body
//	Variable:   Var
//	Value:      Value, Type
//	Overloaded: Class
type Node struct {
	Kind  NodeKind
	Fn    NodeID
	Arg   NodeID
	Var   VarID
	Body  NodeID
	Value object.Ref
	Type  typesystem.Type
	Class ClassID
	Label string

	resolved bool
}

// IsResolved reports whether an Apply node holds a memoized result.
func (n Node) IsResolved() bool { return n.resolved }

type Graph struct {
	nodes []Node
}

func New() *Graph {
	return &Graph{}
}

func (g *Graph) Len() int { return len(g.nodes) }

// At returns a copy of the node. Its Value is borrowed from the graph and must
// not be dropped.
func (g *Graph) At(id NodeID) Node {
	g.check(id)
	return g.nodes[id]
}

func (g *Graph) add(n Node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) check(ids ...NodeID) {
	for _, id := range ids {
		if id < 0 || int(id) >= len(g.nodes) {
			panic(fmt.Sprintf("graph: node %d out of range [0, %d)", id, len(g.nodes)))
		}
	}
}

func (g *Graph) Apply(fn, arg NodeID) NodeID {
	g.check(fn, arg)
	return g.add(Node{Kind: KindApply, Fn: fn, Arg: arg})
}

// ApplyN applies fn to args left to right: ApplyN(f, a, b) is Apply(Apply(f, a), b).
func (g *Graph) ApplyN(fn NodeID, args ...NodeID) NodeID {
	for _, a := range args {
		fn = g.Apply(fn, a)
	}
	return fn
}

func (g *Graph) Lambda(v VarID, body NodeID) NodeID {
	g.check(body)
	return g.add(Node{Kind: KindLambda, Var: v, Body: body})
}

func (g *Graph) Var(v VarID) NodeID {
	return g.add(Node{Kind: KindVariable, Var: v})
}

// Value adds a leaf holding ref with its declared type. The graph takes
// ownership of ref.
func (g *Graph) Value(ref object.Ref, t typesystem.Type) NodeID {
	return g.add(Node{Kind: KindValue, Value: ref, Type: t})
}

// NamedValue is Value with a display label.
func (g *Graph) NamedValue(label string, ref object.Ref, t typesystem.Type) NodeID {
	id := g.Value(ref, t)
	g.nodes[id].Label = label
	return id
}

// Overloaded adds a reference to an overload class, to be replaced by one
// concrete instance during resolution.
func (g *Graph) Overloaded(class ClassID, label string) NodeID {
	return g.add(Node{Kind: KindOverloaded, Class: class, Label: label})
}

// Resolved returns the memoized result of an Apply node. The returned handle
// is borrowed.
func (g *Graph) Resolved(id NodeID) (object.Ref, bool) {
	g.check(id)
	n := &g.nodes[id]
	if n.Kind != KindApply || !n.resolved {
		return object.Ref{}, false
	}
	return n.Value, true
}

// Memoize stores ref as the result of Apply node id, taking ownership. A node
// that already holds a result keeps it and ref is dropped.
func (g *Graph) Memoize(id NodeID, ref object.Ref) {
	g.check(id)
	n := &g.nodes[id]
	if n.Kind != KindApply {
		panic(fmt.Sprintf("graph: memoizing %s node %d", n.Kind, id))
	}
	if n.resolved {
		ref.Drop()
		return
	}
	n.Value = ref
	n.resolved = true
}

// SetValue turns node id into a Value leaf, taking ownership of ref.
func (g *Graph) SetValue(id NodeID, label string, ref object.Ref, t typesystem.Type) {
	g.check(id)
	n := &g.nodes[id]
	n.Value.Drop()
	*n = Node{Kind: KindValue, Value: ref, Type: t, Label: label}
}

// Instantiate returns body with every Variable node bound to v replaced by
// arg. Unchanged subgraphs are shared rather than copied, so memoized work
// inside them is reused.
func (g *Graph) Instantiate(body NodeID, v VarID, arg NodeID) NodeID {
	g.check(body, arg)
	memo := make(map[NodeID]NodeID)
	var walk func(id NodeID) NodeID
	walk = func(id NodeID) NodeID {
		if out, ok := memo[id]; ok {
			return out
		}
		n := g.nodes[id]
		out := id
		switch n.Kind {
		case KindVariable:
			if n.Var == v {
				out = arg
			}
		case KindApply:
			if n.resolved {
				break
			}
			fn, a := walk(n.Fn), walk(n.Arg)
			if fn != n.Fn || a != n.Arg {
				out = g.add(Node{Kind: KindApply, Fn: fn, Arg: a, Label: n.Label})
			}
		case KindLambda:
			if n.Var == v {
				break
			}
			if b := walk(n.Body); b != n.Body {
				out = g.add(Node{Kind: KindLambda, Var: n.Var, Body: b, Label: n.Label})
			}
		}
		memo[id] = out
		return out
	}
	return walk(body)
}

// Duplicate copies the graph reachable from root into a fresh arena. Interior
// nodes are copied once, keeping their sharing, but every edge to an
// Overloaded node gets its own copy, so each occurrence of an overloaded
// reference has a distinct identity. origin maps new ids back to old ones.
func (g *Graph) Duplicate(root NodeID) (dup *Graph, newRoot NodeID, origin []NodeID) {
	g.check(root)
	dup = &Graph{nodes: make([]Node, 0, len(g.nodes))}
	memo := make(map[NodeID]NodeID)
	var walk func(id NodeID) NodeID
	walk = func(id NodeID) NodeID {
		n := g.nodes[id]
		if n.Kind == KindOverloaded {
			origin = append(origin, id)
			return dup.add(n)
		}
		if out, ok := memo[id]; ok {
			return out
		}
		c := n
		if !n.Value.IsNil() {
			c.Value = n.Value.Copy()
		}
		switch {
		case n.Kind == KindApply && n.resolved:
			// operand ids of the source arena mean nothing in dup
			c.Fn, c.Arg = None, None
		case n.Kind == KindApply:
			c.Fn = walk(n.Fn)
			c.Arg = walk(n.Arg)
		case n.Kind == KindLambda:
			c.Body = walk(n.Body)
		}
		out := dup.add(c)
		origin = append(origin, id)
		memo[id] = out
		return out
	}
	newRoot = walk(root)
	return dup, newRoot, origin
}

// Clone copies the whole arena, ids included. Every held handle is copied.
func (g *Graph) Clone() *Graph {
	c := &Graph{nodes: make([]Node, len(g.nodes), len(g.nodes)+16)}
	copy(c.nodes, g.nodes)
	for i := range c.nodes {
		if !c.nodes[i].Value.IsNil() {
			c.nodes[i].Value = c.nodes[i].Value.Copy()
		}
	}
	return c
}

// Release drops every handle the graph holds.
func (g *Graph) Release() {
	for i := range g.nodes {
		g.nodes[i].Value.Drop()
		g.nodes[i].resolved = false
	}
	g.nodes = nil
}

// Format renders the expression rooted at id for diagnostics.
func (g *Graph) Format(id NodeID) string {
	var sb strings.Builder
	g.format(&sb, id, 0)
	return sb.String()
}

const maxFormatDepth = 16

func (g *Graph) format(sb *strings.Builder, id NodeID, depth int) {
	if depth > maxFormatDepth {
		sb.WriteString("…")
		return
	}
	n := g.At(id)
	switch n.Kind {
	case KindApply:
		if n.resolved {
			sb.WriteString(n.Value.String())
			return
		}
		sb.WriteByte('(')
		g.format(sb, n.Fn, depth+1)
		sb.WriteByte(' ')
		g.format(sb, n.Arg, depth+1)
		sb.WriteByte(')')
	case KindLambda:
		fmt.Fprintf(sb, "(\\%s. ", n.Var)
		g.format(sb, n.Body, depth+1)
		sb.WriteByte(')')
	case KindVariable:
		sb.WriteString(n.Var.String())
	case KindValue:
		if n.Label != "" {
			sb.WriteString(n.Label)
		} else {
			sb.WriteString(n.Value.String())
		}
	case KindOverloaded:
		sb.WriteString(n.Label)
		sb.WriteString("?")
	}
}
