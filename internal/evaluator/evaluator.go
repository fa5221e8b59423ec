// Package evaluator reduces an expression graph to a value, call-by-need.
//
// Reduction walks the function-side spine of an Apply chain, pushing the
// Apply nodes that supply arguments, until it reaches a non-Apply bottom.
// A Lambda bottom consumes one argument by instantiating its body; a Closure
// bottom is cloned and fills as many slots as the stack can supply with
// thunks of the argument nodes, then is invoked once saturated. Closure code
// forces only the thunks it needs. Every Apply that supplied the last consumed
// argument is memoized with the result, so shared subgraphs are reduced once.
package evaluator

import (
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/logging"
	"github.com/funvibe/nodegraph/internal/object"
)

// Evaluator reduces nodes of a single graph. It is not safe for concurrent
// use; a graph may be evaluated by one goroutine at a time.
type Evaluator struct {
	g      *graph.Graph
	owner  object.Ref
	logger logging.Logger

	// CallStack holds the closures being invoked, outermost first.
	CallStack []StackFrame
	// Invocations counts closure calls made so far.
	Invocations int
}

type Option func(*Evaluator)

func WithLogger(l logging.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithOwner lets lambda values produced by the evaluator keep the boxed graph
// alive after the caller drops its own handle. owner is borrowed.
func WithOwner(owner object.Ref) Option {
	return func(e *Evaluator) { e.owner = owner }
}

func New(g *graph.Graph, opts ...Option) *Evaluator {
	e := &Evaluator{g: g, logger: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Graph() *graph.Graph { return e.g }

// Eval reduces the node and returns an owned handle to its value. Arguments
// still pending in a returned partial application are forced first, so the
// value does not depend on the graph once Eval returns.
func (e *Evaluator) Eval(id graph.NodeID) (object.Ref, error) {
	v, err := e.eval(id)
	if err != nil {
		return object.Ref{}, err
	}
	return e.settle(v)
}

func (e *Evaluator) eval(id graph.NodeID) (object.Ref, error) {
	n := e.g.At(id)
	switch n.Kind {
	case graph.KindApply:
		return e.reduce(id)
	case graph.KindLambda:
		return e.lambdaValue(id), nil
	default:
		bottom, err := e.leaf(id)
		if err != nil {
			return object.Ref{}, err
		}
		return e.force(bottom, id)
	}
}

// leaf returns the value of a Value node, failing for nodes that can never
// produce one.
func (e *Evaluator) leaf(id graph.NodeID) (object.Ref, error) {
	n := e.g.At(id)
	switch n.Kind {
	case graph.KindValue:
		if _, ok := AsThunk(n.Value); ok {
			v, err := Force(n.Value)
			if err != nil {
				return object.Ref{}, err
			}
			return v.Copy(), nil
		}
		return n.Value.Copy(), nil
	case graph.KindVariable:
		return object.Ref{}, &graph.UnboundVariableError{Var: n.Var, Node: id}
	case graph.KindOverloaded:
		return object.Ref{}, &UnresolvedOverloadError{Label: n.Label, Node: id}
	default:
		panic("evaluator: leaf called on " + n.Kind.String() + " node")
	}
}

// force invokes nullary closures until the value is no longer one.
func (e *Evaluator) force(v object.Ref, at graph.NodeID) (object.Ref, error) {
	for {
		c, ok := AsClosure(v)
		if !ok || c.Arity != 0 {
			return v, nil
		}
		res, err := e.invoke(c, at)
		v.Drop()
		if err != nil {
			return object.Ref{}, err
		}
		v = res
	}
}

func (e *Evaluator) reduce(root graph.NodeID) (object.Ref, error) {
	stack := arraystack.New()

	// Walk the spine down to its bottom, stopping early at a memoized Apply.
	var bottom object.Ref
	cur := root
	for {
		n := e.g.At(cur)
		if n.Kind != graph.KindApply {
			break
		}
		if v, ok := e.g.Resolved(cur); ok {
			bottom = v.Copy()
			break
		}
		stack.Push(cur)
		cur = n.Fn
	}

	for {
		if bottom.IsNil() {
			n := e.g.At(cur)
			switch n.Kind {
			case graph.KindLambda:
				if stack.Empty() {
					return e.lambdaValue(cur), nil
				}
				app := pop(stack)
				body := e.g.Instantiate(n.Body, n.Var, e.g.At(app).Arg)
				res, err := e.eval(body)
				if err != nil {
					return object.Ref{}, err
				}
				e.g.Memoize(app, res.Copy())
				bottom = res
			default:
				v, err := e.leaf(cur)
				if err != nil {
					return object.Ref{}, err
				}
				bottom = v
			}
		}

		var err error
		if bottom, err = e.force(bottom, cur); err != nil {
			return object.Ref{}, err
		}
		if stack.Empty() {
			return bottom, nil
		}

		if _, ok := AsClosure(bottom); !ok {
			app := pop(stack)
			err := &NotCallableError{Value: describe(bottom), Node: app}
			bottom.Drop()
			return object.Ref{}, err
		}

		// Closures are copy-on-apply: a partial application may be shared.
		applied := bottom.Clone()
		bottom.Drop()
		c, _ := AsClosure(applied)
		last := graph.None
		for c.Remaining() > 0 && !stack.Empty() {
			app := pop(stack)
			c.Args = append(c.Args, e.delay(e.g.At(app).Arg))
			last = app
		}
		if last == graph.None {
			// saturated closures are invoked as soon as they fill up
			err := &NotCallableError{Value: c.String(), Node: cur}
			applied.Drop()
			return object.Ref{}, err
		}

		if c.Remaining() > 0 {
			e.g.Memoize(last, applied.Copy())
			return applied, nil
		}

		res, err := e.invoke(c, last)
		applied.Drop()
		if err != nil {
			return object.Ref{}, err
		}
		e.g.Memoize(last, res.Copy())
		bottom = res
		cur = last
	}
}

func (e *Evaluator) invoke(c *Closure, at graph.NodeID) (object.Ref, error) {
	e.Invocations++
	e.logger.Debug("invoke closure", "closure", c.Name, "arity", c.Arity, "node", at)

	e.CallStack = append(e.CallStack, StackFrame{Name: c.Name, Node: at})
	defer func() { e.CallStack = e.CallStack[:len(e.CallStack)-1] }()

	res := c.Impl(c.Args)
	if res.IsNil() {
		res = object.Nothing
	}
	if exc, ok := AsException(res); ok {
		defer res.Drop()
		// a failed argument surfaces as the failure it was
		if exc.Cause != nil && isEvaluationError(exc.Cause) {
			return object.Ref{}, exc.Cause
		}
		err := &RuntimeException{
			Message:    exc.Message,
			Cause:      exc.Cause,
			Node:       at,
			StackTrace: append([]StackFrame(nil), e.CallStack...),
		}
		e.logger.Debug("closure raised", "closure", c.Name, "error", err.Message)
		return object.Ref{}, err
	}
	if _, ok := AsThunk(res); ok {
		v, err := Force(res)
		if err != nil {
			res.Drop()
			return object.Ref{}, err
		}
		v = v.Copy()
		res.Drop()
		return v, nil
	}
	return res, nil
}

// delay returns the value of an argument node without reducing it. Values
// and memoized applications are passed as they are.
func (e *Evaluator) delay(id graph.NodeID) object.Ref {
	n := e.g.At(id)
	if n.Kind == graph.KindValue {
		return n.Value.Copy()
	}
	if v, ok := e.g.Resolved(id); ok {
		return v.Copy()
	}
	return newThunk(e, id)
}

// settle forces every thunk reachable through the argument slots of v.
func (e *Evaluator) settle(v object.Ref) (object.Ref, error) {
	if !pending(v) {
		return v, nil
	}
	if _, ok := AsThunk(v); ok {
		forced, err := Force(v)
		if err != nil {
			v.Drop()
			return object.Ref{}, err
		}
		forced = forced.Copy()
		v.Drop()
		return e.settle(forced)
	}

	out := v.Clone()
	v.Drop()
	c, _ := AsClosure(out)
	for i := range c.Args {
		arg, err := e.settle(c.Args[i].Copy())
		if err != nil {
			out.Drop()
			return object.Ref{}, err
		}
		c.Args[i].Drop()
		c.Args[i] = arg
	}
	return out, nil
}

func pending(v object.Ref) bool {
	if _, ok := AsThunk(v); ok {
		return true
	}
	c, ok := AsClosure(v)
	if !ok {
		return false
	}
	for _, a := range c.Args {
		if pending(a) {
			return true
		}
	}
	return false
}

// lambdaValue turns a Lambda left without an argument into a one-argument
// closure that reduces the lambda applied to whatever it receives.
func (e *Evaluator) lambdaValue(lambda graph.NodeID) object.Ref {
	impl := func(args []object.Ref) object.Ref {
		arg := e.g.Value(args[0].Copy(), nil)
		res, err := e.eval(e.g.Apply(lambda, arg))
		if err != nil {
			return ThrowError(err)
		}
		return res
	}
	ref := NewClosure("lambda", 1, impl)
	if !e.owner.IsNil() {
		c, _ := AsClosure(ref)
		c.Env = e.owner.Copy()
	}
	return ref
}

func pop(s *arraystack.Stack) graph.NodeID {
	v, _ := s.Pop()
	return v.(graph.NodeID)
}
