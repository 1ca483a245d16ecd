package cel

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// BinaryFunction is a Go function callable from trigger expressions with two
// arguments, such as near(location, 10).
type BinaryFunction struct {
	LHS    *celgo.Type
	RHS    *celgo.Type
	Return *celgo.Type
	Func   func(lhs, rhs any) (any, error)
}

// WithBinaryFunction declares a global function in the environment.
// Predicates calling it are opaque to the tree; register a
// triggertree.PredicateComparer under the same name to relate them.
func WithBinaryFunction(name string, f BinaryFunction) Option {
	return func(o *options) {
		o.envOpts = append(o.envOpts, binaryFunction(name, f))
	}
}

// binaryFunction creates a CEL declaration for a binary function (a function that takes
// two parameters and returns a value).
func binaryFunction(name string, f BinaryFunction) celgo.EnvOption {
	return celgo.Function(name,
		celgo.Overload(fmt.Sprintf("%s_%s_%s", name, f.LHS, f.RHS),
			[]*celgo.Type{f.LHS, f.RHS},
			f.Return,
			celgo.BinaryBinding(binaryWrapper(name, f))))
}

// binaryWrapper wraps a Go function in a closure that converts the arguments
// to Go values and the result back to a CEL value.
func binaryWrapper(name string, f BinaryFunction) func(lhs, rhs ref.Val) ref.Val {
	return func(lhs, rhs ref.Val) ref.Val {
		if f.Func == nil {
			return types.NewErr("function %q has no implementation", name)
		}
		x, err := f.Func(lhs.Value(), rhs.Value())
		if err != nil {
			return types.NewErr("function %q: %s", name, err)
		}
		return types.DefaultTypeAdapter.NativeToValue(x)
	}
}
