package overload

import (
	"errors"

	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/logging"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

// Engine infers the type of a graph and resolves its overloaded references.
// It only reads the registry, so one engine may serve several goroutines once
// the registry is frozen.
type Engine struct {
	reg    *Registry
	logger logging.Logger
}

type Option func(*Engine)

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(reg *Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, logger: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Registry() *Registry { return e.reg }

// Choice records the candidate picked for one occurrence.
type Choice struct {
	Class     *Class
	Candidate Candidate
	Type      typesystem.Type
}

// Resolution is a type-checked copy of a graph with every overloaded
// reference replaced by its chosen candidate.
type Resolution struct {
	Graph *graph.Graph
	Root  graph.NodeID
	Type  typesystem.Type
	// Choices is keyed by node id in Graph.
	Choices map[graph.NodeID]Choice
	// Origin maps node ids in Graph back to the input graph.
	Origin []graph.NodeID
}

// Release drops the values held by the resolved graph.
func (r *Resolution) Release() {
	if r.Graph != nil {
		r.Graph.Release()
	}
}

// Infer resolves the expression rooted at root. The input graph is left
// untouched.
func (e *Engine) Infer(g *graph.Graph, root graph.NodeID) (*Resolution, error) {
	return e.infer(g, root, nil)
}

// InferAs is Infer with the root's type required to unify with expected,
// which lets the context of a use pick instances the expression alone
// leaves open.
func (e *Engine) InferAs(g *graph.Graph, root graph.NodeID, expected typesystem.Type) (*Resolution, error) {
	return e.infer(g, root, expected)
}

// assumption is the overloading assumption made for one occurrence. key is
// the synthetic variable standing for the occurrence.
type assumption struct {
	key    typesystem.TVar
	class  *Class
	node   graph.NodeID
	typ    typesystem.Type
	chosen *Candidate
	failed bool
}

func (a *assumption) open() bool { return a.chosen == nil && !a.failed }

type inference struct {
	*Engine
	g      *graph.Graph
	origin []graph.NodeID
	subst  typesystem.Subst
	memo   map[graph.NodeID]typesystem.Type

	assumptions []*assumption
	errs        []error
}

func (e *Engine) infer(src *graph.Graph, root graph.NodeID, expected typesystem.Type) (*Resolution, error) {
	dup, newRoot, origin := src.Duplicate(root)
	inf := &inference{
		Engine: e,
		g:      dup,
		origin: origin,
		memo:   make(map[graph.NodeID]typesystem.Type),
	}

	t, err := inf.walk(newRoot, nil)
	if err == nil && expected != nil {
		err = inf.unify(newRoot, t, expected)
	}
	if err != nil {
		dup.Release()
		return nil, errors.Join(append(inf.errs, err)...)
	}

	inf.close(nil)
	for _, a := range inf.assumptions {
		if a.open() {
			a.failed = true
			inf.errs = append(inf.errs, inf.noMatch(a, true))
		}
	}
	if len(inf.errs) > 0 {
		dup.Release()
		return nil, errors.Join(inf.errs...)
	}

	res := &Resolution{
		Graph:   dup,
		Root:    newRoot,
		Type:    t.Apply(inf.subst),
		Choices: make(map[graph.NodeID]Choice, len(inf.assumptions)),
		Origin:  origin,
	}
	for _, a := range inf.assumptions {
		at := a.typ.Apply(inf.subst)
		dup.SetValue(a.node, a.chosen.Name, a.chosen.Value.Copy(), at)
		res.Choices[a.node] = Choice{Class: a.class, Candidate: *a.chosen, Type: at}
	}
	e.logger.Debug("inferred graph", "root", root, "type", res.Type.String(), "resolved", len(res.Choices))
	return res, nil
}

// walk types a node. A Value node gets a fresh instance of its type on every
// visit, so one polymorphic value can be used at several types; other nodes
// are typed once.
func (inf *inference) walk(id graph.NodeID, sc *scope) (typesystem.Type, error) {
	if inf.g.At(id).Kind == graph.KindValue {
		return inf.walkNode(id, sc)
	}
	if t, ok := inf.memo[id]; ok {
		return t, nil
	}
	t, err := inf.walkNode(id, sc)
	if err != nil {
		return nil, err
	}
	inf.memo[id] = t
	return t, nil
}

func (inf *inference) walkNode(id graph.NodeID, sc *scope) (typesystem.Type, error) {
	n := inf.g.At(id)
	switch n.Kind {
	case graph.KindValue:
		if n.Type == nil {
			return typesystem.FreshVar(typesystem.Star), nil
		}
		return typesystem.Generalize(n.Type), nil

	case graph.KindVariable:
		t, ok := sc.get(n.Var)
		if !ok {
			return nil, &graph.UnboundVariableError{Var: n.Var, Node: inf.origin[id]}
		}
		return t, nil

	case graph.KindLambda:
		param := typesystem.FreshVar(typesystem.Star)
		body, err := inf.walk(n.Body, sc.bind(n.Var, param))
		if err != nil {
			return nil, err
		}
		return typesystem.Arrow(param, body), nil

	case graph.KindApply:
		if n.IsResolved() {
			return typesystem.FreshVar(typesystem.Star), nil
		}
		fn, err := inf.walk(n.Fn, sc)
		if err != nil {
			return nil, err
		}
		arg, err := inf.walk(n.Arg, sc)
		if err != nil {
			return nil, err
		}
		result := typesystem.FreshVar(typesystem.Star)
		if err := inf.unify(id, fn, typesystem.Arrow(arg, result)); err != nil {
			return nil, err
		}
		inf.close(sc)
		return result, nil

	case graph.KindOverloaded:
		class, ok := inf.reg.Class(n.Class)
		if !ok {
			return nil, &UnknownClassError{Class: n.Class, Label: n.Label, Node: inf.origin[id]}
		}
		a := &assumption{
			key:   typesystem.FreshVar(typesystem.Star),
			class: class,
			node:  id,
			typ:   typesystem.Generalize(class.Type),
		}
		inf.assumptions = append(inf.assumptions, a)
		return a.typ, nil
	}
	panic("overload: unknown node kind " + n.Kind.String())
}

func (inf *inference) unify(id graph.NodeID, left, right typesystem.Type) error {
	s, err := typesystem.UnifyTypes(left.Apply(inf.subst), right.Apply(inf.subst))
	if err != nil {
		return &SiteError{Node: id, Origin: inf.origin[id], Err: err}
	}
	inf.subst = inf.subst.Merge(s)
	return nil
}

// close tries every open assumption whose type is ground, provided the
// variables in scope are all concrete. One matching candidate closes the
// assumption, none fails it, several leave it open.
func (inf *inference) close(sc *scope) {
	if !sc.concrete(inf.subst) {
		return
	}
	for _, a := range inf.assumptions {
		if !a.open() {
			continue
		}
		t := a.typ.Apply(inf.subst)
		if !typesystem.IsGround(t) {
			continue
		}
		var matches []int
		for i, c := range a.class.Candidates {
			if typesystem.Specializes(c.Type, t) {
				matches = append(matches, i)
			}
		}
		switch len(matches) {
		case 0:
			a.failed = true
			inf.errs = append(inf.errs, inf.noMatch(a, false))
		case 1:
			a.chosen = &a.class.Candidates[matches[0]]
			inf.logger.Debug("closed overload", "site", a.key.String(), "class", a.class.Name, "node", inf.origin[a.node], "instance", a.chosen.Name)
		default:
			inf.logger.Debug("deferred overload", "site", a.key.String(), "class", a.class.Name, "node", inf.origin[a.node], "matches", len(matches))
		}
	}
}

func (inf *inference) noMatch(a *assumption, ambiguous bool) error {
	t := a.typ.Apply(inf.subst)
	err := &NoValidOverloadingError{Class: a.class.Name, Type: t, Node: inf.origin[a.node], Ambiguous: ambiguous}
	if ambiguous {
		for _, c := range a.class.Candidates {
			if _, uerr := typesystem.UnifyTypes(typesystem.Generalize(c.Type), t); uerr == nil {
				err.Matches = append(err.Matches, c.Name)
			}
		}
	}
	return err
}
