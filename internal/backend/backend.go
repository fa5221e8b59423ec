// Package backend turns resolved graphs into executables and runs them.
package backend

import (
	"context"

	"github.com/funvibe/nodegraph/internal/object"
	"github.com/funvibe/nodegraph/internal/overload"
)

// Backend runs a resolved program.
type Backend interface {
	// Run evaluates res, applied to arg unless arg is empty, and returns an
	// owned result. res must not be modified.
	Run(ctx context.Context, res *overload.Resolution, arg object.Ref) (object.Ref, error)

	// Name returns the backend name for display
	Name() string
}
