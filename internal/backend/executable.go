package backend

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/funvibe/nodegraph/internal/diagnostics"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/logging"
	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/overload"
	"github.com/funvibe/nodegraph/internal/pipeline"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

// Program is one graph to compile.
type Program struct {
	Name  string
	Graph *graph.Graph
	Root  graph.NodeID
	// Expected optionally constrains the program's type.
	Expected typesystem.Type
}

// Executable is a compiled program. It is safe for concurrent use: every run
// works on its own copy of the graph.
type Executable struct {
	name    string
	res     *overload.Resolution
	backend Backend
}

func (x *Executable) Name() string { return x.name }

func (x *Executable) Type() typesystem.Type { return x.res.Type }

func (x *Executable) Resolution() *overload.Resolution { return x.res }

// Origin maps a node id seen while running back to the source graph. Nodes
// created during evaluation have no origin.
func (x *Executable) Origin(id graph.NodeID) graph.NodeID {
	if id < 0 || int(id) >= len(x.res.Origin) {
		return graph.None
	}
	return x.res.Origin[id]
}

// Run evaluates the program applied to arg, which is borrowed. An empty arg
// evaluates the program itself. A failure affects only this run.
func (x *Executable) Run(ctx context.Context, arg object.Ref) (object.Ref, error) {
	v, err := x.backend.Run(ctx, x.res, arg)
	if err != nil {
		return object.Ref{}, fmt.Errorf("%s: %w", x.name, err)
	}
	return v, nil
}

// Diagnose converts a Run error into diagnostics pointing at source nodes.
func (x *Executable) Diagnose(err error) []*diagnostics.DiagnosticError {
	ds := diagnostics.FromError(err)
	for _, d := range ds {
		if d.Code.IsRuntime() {
			d.Node = x.Origin(d.Node)
		}
	}
	return ds
}

// Close releases the resolved graph.
func (x *Executable) Close() {
	x.res.Release()
}

// Compiler runs the compile pipeline and wraps its output in executables.
type Compiler struct {
	engine   *overload.Engine
	backend  Backend
	logger   logging.Logger
	stages   []pipeline.Processor
	pipeline *pipeline.Pipeline
	workers  int
}

type Option func(*Compiler)

func WithBackend(b Backend) Option {
	return func(c *Compiler) { c.backend = b }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithStages appends host stages after inference.
func WithStages(stages ...pipeline.Processor) Option {
	return func(c *Compiler) { c.stages = append(c.stages, stages...) }
}

// WithWorkers bounds how many programs CompileAll handles at once.
func WithWorkers(n int) Option {
	return func(c *Compiler) { c.workers = n }
}

func NewCompiler(engine *overload.Engine, opts ...Option) *Compiler {
	c := &Compiler{engine: engine, logger: logging.Nop(), workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(c)
	}
	c.pipeline = pipeline.Compile(engine, c.logger).Then(c.stages...)
	if c.backend == nil {
		c.backend = NewReducer(c.logger)
	}
	return c
}

// Compile type-checks prog and resolves its overloads. The returned error
// joins every diagnostic produced.
func (c *Compiler) Compile(ctx context.Context, prog Program) (*Executable, error) {
	pctx := pipeline.NewContext(ctx, prog.Name, prog.Graph, prog.Root)
	pctx.Expected = prog.Expected
	pctx = c.pipeline.Run(pctx)
	pctx.Result.Drop()

	if pctx.Failed() {
		if pctx.Resolution != nil {
			pctx.Resolution.Release()
		}
		c.logger.Info("compile failed", "program", prog.Name, "errors", len(pctx.Errors))
		errs := make([]error, len(pctx.Errors))
		for i, d := range pctx.Errors {
			errs[i] = d
		}
		return nil, fmt.Errorf("compiling %s: %w", prog.Name, errors.Join(errs...))
	}
	c.logger.Debug("compiled", "program", prog.Name, "type", pctx.Resolution.Type.String(), "backend", c.backend.Name())
	return &Executable{name: prog.Name, res: pctx.Resolution, backend: c.backend}, nil
}

// CompileAll compiles independent programs concurrently. Executables come
// back in input order; a failed program leaves a nil slot and its error is
// joined into the returned one.
func (c *Compiler) CompileAll(ctx context.Context, progs []Program) ([]*Executable, error) {
	out := make([]*Executable, len(progs))
	errs := make([]error, len(progs))

	g, gctx := errgroup.WithContext(ctx)
	if c.workers > 0 {
		g.SetLimit(c.workers)
	}
	for i, prog := range progs {
		i, prog := i, prog
		g.Go(func() error {
			out[i], errs[i] = c.Compile(gctx, prog)
			return nil
		})
	}
	// workers report through errs and never fail the group
	_ = g.Wait()
	return out, errors.Join(errs...)
}
