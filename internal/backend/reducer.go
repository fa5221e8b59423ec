package backend

import (
	"context"

	"github.com/funvibe/nodegraph/internal/evaluator"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/logging"
	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/overload"
)

// Reducer evaluates a private clone of the resolved graph with the lazy
// evaluator, so memoized results never leak from one run into the next.
type Reducer struct {
	logger logging.Logger
}

func NewReducer(logger logging.Logger) *Reducer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Reducer{logger: logger}
}

func (b *Reducer) Name() string { return "reducer" }

func (b *Reducer) Run(ctx context.Context, res *overload.Resolution, arg object.Ref) (object.Ref, error) {
	if err := ctx.Err(); err != nil {
		return object.Ref{}, err
	}

	box := graph.Box(res.Graph.Clone())
	defer box.Drop()
	g := box.Get()

	root := res.Root
	if !arg.IsNil() {
		root = g.Apply(root, g.Value(arg.Copy(), nil))
	}
	ev := evaluator.New(g, evaluator.WithOwner(box.Ref), evaluator.WithLogger(b.logger))
	v, err := ev.Eval(root)
	if err != nil {
		return object.Ref{}, err
	}
	b.logger.Debug("run finished", "invocations", ev.Invocations, "nodes", g.Len())
	return v, nil
}
