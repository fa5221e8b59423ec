package evaluator

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/object"
)

// Impl is the native code behind a closure. It receives exactly Arity
// borrowed arguments and returns an owned result. Arguments may be thunks:
// Force each one before looking at its value. Returning an Exception value
// aborts the evaluation in progress.
type Impl func(args []object.Ref) object.Ref

// Closure is a callable value with a fixed arity and the argument slots
// filled so far. A closure with fewer arguments than its arity is a partial
// application.
type Closure struct {
	Name  string
	Arity int
	Args  []object.Ref
	Impl  Impl

	// Env is an optional captured object kept alive by the closure.
	Env object.Ref
}

// Remaining is the number of unfilled argument slots.
func (c *Closure) Remaining() int { return c.Arity - len(c.Args) }

func (c *Closure) IsPartial() bool { return len(c.Args) > 0 && c.Remaining() > 0 }

func (c *Closure) String() string {
	if len(c.Args) == 0 {
		return fmt.Sprintf("<%s/%d>", c.Name, c.Arity)
	}
	return fmt.Sprintf("<partial %s %d/%d args>", c.Name, len(c.Args), c.Arity)
}

// ClosureInfo is the object type of closures. Cloning copies the argument
// slots so partial applications reused at several sites never share them.
var ClosureInfo = &object.TypeInfo{
	ID:   object.StableID("Closure"),
	Name: "Closure",
	Size: unsafe.Sizeof(Closure{}),
	Clone: func(v any) any {
		c := v.(*Closure)
		args := make([]object.Ref, len(c.Args), c.Arity)
		for i, a := range c.Args {
			args[i] = a.Copy()
		}
		clone := &Closure{Name: c.Name, Arity: c.Arity, Args: args, Impl: c.Impl}
		if !c.Env.IsNil() {
			clone.Env = c.Env.Copy()
		}
		return clone
	},
	Destroy: func(v any) {
		c := v.(*Closure)
		for i := range c.Args {
			c.Args[i].Drop()
		}
		c.Args = nil
		c.Env.Drop()
	},
}

// NewClosure allocates a closure with no arguments filled.
func NewClosure(name string, arity int, impl Impl) object.Ref {
	if arity < 0 {
		panic(fmt.Sprintf("closure %s: negative arity %d", name, arity))
	}
	return object.Alloc(ClosureInfo, &Closure{Name: name, Arity: arity, Args: make([]object.Ref, 0, arity), Impl: impl})
}

// AsClosure returns the closure held by r.
func AsClosure(r object.Ref) (*Closure, bool) {
	if !r.Is(ClosureInfo) {
		return nil, false
	}
	return object.Unbox[*Closure](r)
}

// Thunk is a closure argument that has not been reduced yet. The first Force
// reduces its node and keeps the outcome for later calls.
type Thunk struct {
	ev   *Evaluator
	node graph.NodeID

	done  bool
	value object.Ref
	err   error
}

func (t *Thunk) String() string {
	if !t.done {
		return fmt.Sprintf("<thunk %d>", t.node)
	}
	if t.err != nil {
		return "<failed thunk>"
	}
	return t.value.String()
}

var ThunkInfo = &object.TypeInfo{
	ID:   object.StableID("Thunk"),
	Name: "Thunk",
	Size: unsafe.Sizeof(Thunk{}),
	Clone: func(v any) any {
		t := v.(*Thunk)
		c := &Thunk{ev: t.ev, node: t.node, done: t.done, err: t.err}
		if !t.value.IsNil() {
			c.value = t.value.Copy()
		}
		return c
	},
	Destroy: func(v any) {
		t := v.(*Thunk)
		t.value.Drop()
		t.ev = nil
	},
}

func newThunk(e *Evaluator, id graph.NodeID) object.Ref {
	return object.Alloc(ThunkInfo, &Thunk{ev: e, node: id})
}

// AsThunk returns the thunk held by r.
func AsThunk(r object.Ref) (*Thunk, bool) {
	if !r.Is(ThunkInfo) {
		return nil, false
	}
	return object.Unbox[*Thunk](r)
}

// Force returns the value behind a closure argument, reducing it on first
// use. The result is borrowed from r. Values that are not thunks are returned
// as they are. Closure code passes a Force error on with ThrowError.
func Force(r object.Ref) (object.Ref, error) {
	t, ok := AsThunk(r)
	if !ok {
		return r, nil
	}
	if !t.done {
		v, err := t.ev.eval(t.node)
		t.done, t.value, t.err, t.ev = true, v, err, nil
	}
	return t.value, t.err
}

// Exception is the value closure code returns to signal a runtime failure.
type Exception struct {
	Message string
	Cause   error
}

func (e *Exception) String() string {
	return "exception: " + e.Message
}

var ExceptionInfo = object.NewTypeInfo[*Exception]("Exception")

// Throw returns an Exception value.
func Throw(format string, args ...any) object.Ref {
	return object.Alloc(ExceptionInfo, &Exception{Message: fmt.Sprintf(format, args...)})
}

// ThrowError wraps err as an Exception value.
func ThrowError(err error) object.Ref {
	return object.Alloc(ExceptionInfo, &Exception{Message: err.Error(), Cause: err})
}

// AsException returns the exception held by r.
func AsException(r object.Ref) (*Exception, bool) {
	if !r.Is(ExceptionInfo) {
		return nil, false
	}
	return object.Unbox[*Exception](r)
}

// RegisterTypes adds the evaluator's object types to reg.
func RegisterTypes(reg *object.Registry) error {
	for _, info := range []*object.TypeInfo{ClosureInfo, ThunkInfo, ExceptionInfo} {
		if err := reg.Register(info); err != nil {
			return err
		}
	}
	return nil
}

func describe(r object.Ref) string {
	if r.IsNil() {
		return "<empty>"
	}
	return strings.TrimSpace(r.Info().Name + " " + r.String())
}
