package triggertree

import "github.com/ezachrisen/triggertree/expr"

// Evaluator is the interface implemented by types that parse trigger
// expressions and evaluate the predicates the tree cannot reason about itself.
type Evaluator interface {
	// Parse turns source text into an expression. Sub-expressions the
	// evaluator cannot express as comparisons are returned as expr.Call.
	Parse(source string) (expr.Node, error)

	// Compile pre-processes an opaque predicate, returning a compiled version.
	// The tree stores the compiled version, later providing it back to
	// Evaluate.
	Compile(call *expr.Call) (any, error)

	// Evaluate runs a compiled predicate against the data. The negation of
	// the call is applied by the tree, not the evaluator.
	Evaluate(data map[string]any, program any) (bool, error)
}
