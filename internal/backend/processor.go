package backend

import (
	"github.com/funvibe/nodegraph/internal/pipeline"
)

// ExecutionProcessor is a pipeline stage that runs the resolved program on
// ctx.Argument with a Backend and stores the output in ctx.Result.
type ExecutionProcessor struct {
	Backend Backend
}

func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Resolution == nil || ctx.Failed() {
		return ctx
	}

	x := &Executable{name: ctx.Name, res: ctx.Resolution, backend: p.Backend}
	result, err := x.Run(ctx.Context, ctx.Argument)
	if err != nil {
		ctx.Errors = append(ctx.Errors, x.Diagnose(err)...)
		return ctx
	}
	ctx.Result = result
	return ctx
}
