// Package pipeline drives a graph through the compile stages: validation,
// type inference with overload resolution, and any stages hosts append.
package pipeline

import (
	"context"

	"github.com/funvibe/nodegraph/internal/diagnostics"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/overload"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

// PipelineContext carries one program through the stages.
type PipelineContext struct {
	Context context.Context
	Name    string

	Graph *graph.Graph
	Root  graph.NodeID
	// Expected, when set, is the type the program must have.
	Expected typesystem.Type

	Resolution *overload.Resolution

	// Argument, when set, is applied to the program by execution stages,
	// which store their output in Result.
	Argument object.Ref
	Result   object.Ref

	Errors []*diagnostics.DiagnosticError
}

func NewContext(ctx context.Context, name string, g *graph.Graph, root graph.NodeID) *PipelineContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PipelineContext{Context: ctx, Name: name, Graph: g, Root: root}
}

// Failed reports whether any stage recorded an error.
func (c *PipelineContext) Failed() bool { return len(c.Errors) > 0 }

// AddError records err as diagnostics.
func (c *PipelineContext) AddError(err error) {
	c.Errors = append(c.Errors, diagnostics.FromError(err)...)
}

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Then returns a pipeline running p's stages followed by more.
func (p *Pipeline) Then(more ...Processor) *Pipeline {
	ps := make([]Processor, 0, len(p.processors)+len(more))
	ps = append(ps, p.processors...)
	return &Pipeline{processors: append(ps, more...)}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		if err := ctx.Context.Err(); err != nil {
			ctx.AddError(err)
			return ctx
		}
		// Stages keep running after errors so each can add its own
		// diagnostics; each stage decides whether it has enough to work on.
		ctx = processor.Process(ctx)
	}
	return ctx
}
