package evaluator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/nodegraph/internal/evaluator"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/prelude"
)

func evalInt(t *testing.T, ev *evaluator.Evaluator, id graph.NodeID) int64 {
	t.Helper()
	v, err := ev.Eval(id)
	require.NoError(t, err)
	defer v.Drop()
	n, ok := prelude.AsInt(v)
	require.True(t, ok, "result %s is not an Int", v)
	return n
}

// counting returns a closure node adding its two Int arguments and the
// number of times its body has run.
func counting(g *graph.Graph) (graph.NodeID, *int) {
	calls := new(int)
	impl := func(args []object.Ref) object.Ref {
		*calls++
		x, err := evaluator.Force(args[0])
		if err != nil {
			return evaluator.ThrowError(err)
		}
		y, err := evaluator.Force(args[1])
		if err != nil {
			return evaluator.ThrowError(err)
		}
		a, _ := prelude.AsInt(x)
		b, _ := prelude.AsInt(y)
		return prelude.NewInt(a + b)
	}
	return g.NamedValue("plus", evaluator.NewClosure("plus", 2, impl), nil), calls
}

func TestAddTwoAndThree(t *testing.T) {
	g := graph.New()
	defer g.Release()
	root := g.ApplyN(prelude.MustRef(g, "addInt"), prelude.IntNode(g, 2), prelude.IntNode(g, 3))

	assert.EqualValues(t, 5, evalInt(t, evaluator.New(g), root))
}

func TestLambdaDouble(t *testing.T) {
	g := graph.New()
	defer g.Release()
	v := graph.NewVar()
	body := g.Apply(prelude.MustRef(g, "double"), g.Var(v))
	root := g.Apply(g.Lambda(v, body), prelude.IntNode(g, 21))

	assert.EqualValues(t, 42, evalInt(t, evaluator.New(g), root))
}

func TestNestedLambdas(t *testing.T) {
	g := graph.New()
	defer g.Release()
	x, y := graph.NewVar(), graph.NewVar()
	sub := g.Lambda(x, g.Lambda(y, g.ApplyN(prelude.MustRef(g, "divInt"), g.Var(x), g.Var(y))))
	root := g.ApplyN(sub, prelude.IntNode(g, 12), prelude.IntNode(g, 4))

	assert.EqualValues(t, 3, evalInt(t, evaluator.New(g), root))
}

func TestPartialApplication(t *testing.T) {
	g := graph.New()
	defer g.Release()
	plus, _ := counting(g)
	ev := evaluator.New(g)

	pap := g.Apply(plus, prelude.IntNode(g, 1))
	v, err := ev.Eval(pap)
	require.NoError(t, err)
	c, ok := evaluator.AsClosure(v)
	require.True(t, ok)
	assert.Equal(t, 1, c.Remaining())
	assert.True(t, c.IsPartial())
	v.Drop()

	later := g.Apply(pap, prelude.IntNode(g, 2))
	atOnce := g.ApplyN(plus, prelude.IntNode(g, 1), prelude.IntNode(g, 2))
	assert.Equal(t, evalInt(t, ev, atOnce), evalInt(t, ev, later))
}

func TestPartialApplicationIsCopiedPerUse(t *testing.T) {
	g := graph.New()
	defer g.Release()
	plus, _ := counting(g)

	pap := g.Apply(plus, prelude.IntNode(g, 10))
	a := g.Apply(pap, prelude.IntNode(g, 1))
	b := g.Apply(pap, prelude.IntNode(g, 2))
	root := g.ApplyN(prelude.MustRef(g, "mulInt"), a, b)

	assert.EqualValues(t, 11*12, evalInt(t, evaluator.New(g), root))
}

func TestSharedApplyRunsOnce(t *testing.T) {
	g := graph.New()
	defer g.Release()
	plus, calls := counting(g)
	ev := evaluator.New(g)

	shared := g.ApplyN(plus, prelude.IntNode(g, 3), prelude.IntNode(g, 4))
	root := g.ApplyN(prelude.MustRef(g, "mulInt"), shared, shared)

	assert.EqualValues(t, 49, evalInt(t, ev, root))
	assert.EqualValues(t, 7, evalInt(t, ev, shared))
	assert.Equal(t, 1, *calls)
	_, ok := g.Resolved(shared)
	assert.True(t, ok)
}

func TestRuntimeException(t *testing.T) {
	g := graph.New()
	defer g.Release()
	div := g.ApplyN(prelude.MustRef(g, "divInt"), prelude.IntNode(g, 1), prelude.IntNode(g, 0))
	root := g.Apply(prelude.MustRef(g, "negInt"), div)
	ev := evaluator.New(g)

	_, err := ev.Eval(root)
	var rt *evaluator.RuntimeException
	require.True(t, errors.As(err, &rt), "got %v", err)
	assert.Contains(t, rt.Message, "division by zero")
	assert.Equal(t, div, rt.Node)
	require.NotEmpty(t, rt.StackTrace)
	assert.Equal(t, "divInt", rt.StackTrace[len(rt.StackTrace)-1].Name)
	assert.Equal(t, "negInt", rt.StackTrace[0].Name, "forced from inside negInt")
	assert.Empty(t, ev.CallStack, "call stack unwound")

	_, ok := g.Resolved(div)
	assert.False(t, ok, "failed application is not memoized")
}

func TestNotCallable(t *testing.T) {
	g := graph.New()
	defer g.Release()
	root := g.Apply(prelude.IntNode(g, 1), prelude.IntNode(g, 2))

	_, err := evaluator.New(g).Eval(root)
	var nc *evaluator.NotCallableError
	require.True(t, errors.As(err, &nc), "got %v", err)
	assert.Equal(t, root, nc.Node)
}

func TestUnresolvedOverload(t *testing.T) {
	g := graph.New()
	defer g.Release()
	root := g.Apply(prelude.Overloaded(g, "neg"), prelude.IntNode(g, 1))

	_, err := evaluator.New(g).Eval(root)
	var uo *evaluator.UnresolvedOverloadError
	require.True(t, errors.As(err, &uo), "got %v", err)
	assert.Equal(t, "neg", uo.Label)
}

func TestUnboundVariable(t *testing.T) {
	g := graph.New()
	defer g.Release()
	v := graph.NewVar()
	root := g.Apply(prelude.MustRef(g, "double"), g.Var(v))

	_, err := evaluator.New(g).Eval(root)
	var ub *graph.UnboundVariableError
	require.True(t, errors.As(err, &ub), "got %v", err)
	assert.Equal(t, v, ub.Var)
}

func TestNullaryClosureIsForced(t *testing.T) {
	g := graph.New()
	defer g.Release()
	seven := evaluator.NewClosure("seven", 0, func([]object.Ref) object.Ref { return prelude.NewInt(7) })
	root := g.Apply(prelude.MustRef(g, "double"), g.Value(seven, prelude.Int))

	assert.EqualValues(t, 14, evalInt(t, evaluator.New(g), root))
}

func TestLambdaBecomesClosure(t *testing.T) {
	g := graph.New()
	v := graph.NewVar()
	lambda := g.Lambda(v, g.Apply(prelude.MustRef(g, "double"), g.Var(v)))

	box := graph.Box(g)
	ev := evaluator.New(g, evaluator.WithOwner(box.Ref))
	fn, err := ev.Eval(lambda)
	require.NoError(t, err)
	box.Drop()

	c, ok := evaluator.AsClosure(fn)
	require.True(t, ok)
	assert.Equal(t, 1, c.Arity)

	// the closure keeps the graph alive after the box is dropped
	arg := prelude.NewInt(4)
	res := c.Impl([]object.Ref{arg})
	n, ok := prelude.AsInt(res)
	require.True(t, ok, "got %s", res)
	assert.EqualValues(t, 8, n)
	res.Drop()
	arg.Drop()

	fn.Drop()
	assert.Zero(t, g.Len(), "graph released with its last closure")
}

func TestLambdaValueReportsFailures(t *testing.T) {
	g := graph.New()
	defer g.Release()
	v := graph.NewVar()
	lambda := g.Lambda(v, g.ApplyN(prelude.MustRef(g, "divInt"), prelude.IntNode(g, 1), g.Var(v)))
	fnNode := g.Value(mustEval(t, evaluator.New(g), lambda), nil)
	root := g.Apply(fnNode, prelude.IntNode(g, 0))

	_, err := evaluator.New(g).Eval(root)
	var rt *evaluator.RuntimeException
	require.True(t, errors.As(err, &rt), "got %v", err)
	assert.Contains(t, rt.Message, "division by zero")
}

func mustEval(t *testing.T, ev *evaluator.Evaluator, id graph.NodeID) object.Ref {
	t.Helper()
	v, err := ev.Eval(id)
	require.NoError(t, err)
	return v
}

// konst returns a closure node yielding its first argument.
func konst(g *graph.Graph) graph.NodeID {
	impl := func(args []object.Ref) object.Ref { return args[0].Copy() }
	return g.NamedValue("const", evaluator.NewClosure("const", 2, impl), nil)
}

func TestUnusedArgumentIsNotReduced(t *testing.T) {
	g := graph.New()
	defer g.Release()
	div := g.ApplyN(prelude.MustRef(g, "divInt"), prelude.IntNode(g, 1), prelude.IntNode(g, 0))
	root := g.ApplyN(konst(g), prelude.IntNode(g, 7), div)
	ev := evaluator.New(g)

	assert.EqualValues(t, 7, evalInt(t, ev, root))
	assert.Equal(t, 1, ev.Invocations, "only const ran")
	_, ok := g.Resolved(div)
	assert.False(t, ok)
}

func TestReturnedArgumentIsForced(t *testing.T) {
	g := graph.New()
	defer g.Release()
	sum := g.ApplyN(prelude.MustRef(g, "addInt"), prelude.IntNode(g, 2), prelude.IntNode(g, 3))
	root := g.ApplyN(konst(g), sum, prelude.IntNode(g, 0))

	assert.EqualValues(t, 5, evalInt(t, evaluator.New(g), root))
	_, ok := g.Resolved(sum)
	assert.True(t, ok, "forced argument is memoized")
}

func TestArgumentReducedOnce(t *testing.T) {
	g := graph.New()
	defer g.Release()
	plus, calls := counting(g)
	shared := g.ApplyN(plus, prelude.IntNode(g, 3), prelude.IntNode(g, 4))
	// both slots of the outer plus refer to the shared application
	x := graph.NewVar()
	root := g.Apply(g.Lambda(x, g.ApplyN(plus, g.Var(x), g.Var(x))), shared)

	assert.EqualValues(t, 14, evalInt(t, evaluator.New(g), root))
	assert.Equal(t, 2, *calls, "inner plus ran once")
}

func TestEscapingPartialApplicationIsSettled(t *testing.T) {
	g := graph.New()
	plus, _ := counting(g)
	pap := g.Apply(plus, g.Apply(prelude.MustRef(g, "double"), prelude.IntNode(g, 2)))

	v, err := evaluator.New(g).Eval(pap)
	require.NoError(t, err)
	g.Release()

	c, ok := evaluator.AsClosure(v)
	require.True(t, ok)
	require.Len(t, c.Args, 1)
	_, isThunk := evaluator.AsThunk(c.Args[0])
	assert.False(t, isThunk)
	n, ok := prelude.AsInt(c.Args[0])
	require.True(t, ok)
	assert.EqualValues(t, 4, n)
	v.Drop()

	g2 := graph.New()
	defer g2.Release()
	plus2, _ := counting(g2)
	bad := g2.Apply(plus2, g2.ApplyN(prelude.MustRef(g2, "divInt"), prelude.IntNode(g2, 1), prelude.IntNode(g2, 0)))
	_, err = evaluator.New(g2).Eval(bad)
	var rt *evaluator.RuntimeException
	assert.True(t, errors.As(err, &rt), "got %v", err)
}

func TestCallStackUnwindsOnPanic(t *testing.T) {
	g := graph.New()
	defer g.Release()
	boom := evaluator.NewClosure("boom", 1, func([]object.Ref) object.Ref { panic("boom") })
	root := g.Apply(g.Value(boom, nil), prelude.IntNode(g, 1))
	ev := evaluator.New(g)

	assert.PanicsWithValue(t, "boom", func() { _, _ = ev.Eval(root) })
	assert.Empty(t, ev.CallStack)
}
