package pipeline

import (
	"github.com/funvibe/nodegraph/internal/diagnostics"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/logging"
	"github.com/funvibe/nodegraph/internal/overload"
)

// ValidateProcessor checks that the context names a root inside its graph.
type ValidateProcessor struct{}

func (ValidateProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Graph == nil {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrG999, graph.None, "%s: no graph to compile", ctx.Name))
		return ctx
	}
	if ctx.Root < 0 || int(ctx.Root) >= ctx.Graph.Len() {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrG999, ctx.Root,
			"%s: root outside graph of %d nodes", ctx.Name, ctx.Graph.Len()))
	}
	return ctx
}

// InferProcessor type-checks the graph and resolves its overloaded
// references, leaving the result in ctx.Resolution.
type InferProcessor struct {
	Engine *overload.Engine
	Logger logging.Logger
}

func (p *InferProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Graph == nil || ctx.Failed() {
		return ctx
	}
	var (
		res *overload.Resolution
		err error
	)
	if ctx.Expected != nil {
		res, err = p.Engine.InferAs(ctx.Graph, ctx.Root, ctx.Expected)
	} else {
		res, err = p.Engine.Infer(ctx.Graph, ctx.Root)
	}
	if err != nil {
		ctx.AddError(err)
		if p.Logger != nil {
			p.Logger.Debug("inference failed", "program", ctx.Name, "errors", len(ctx.Errors))
		}
		return ctx
	}
	ctx.Resolution = res
	if p.Logger != nil {
		p.Logger.Debug("inference done", "program", ctx.Name, "type", res.Type.String())
	}
	return ctx
}

// Compile returns the standard compile pipeline.
func Compile(engine *overload.Engine, logger logging.Logger) *Pipeline {
	return New(ValidateProcessor{}, &InferProcessor{Engine: engine, Logger: logger})
}
