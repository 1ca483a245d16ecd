package triggertree_test

import (
	"errors"
	"fmt"

	"github.com/ezachrisen/triggertree/expr"
)

// -------------------------------------------------- MOCK EVALUATOR
// mockEvaluator is used for testing
// It parses only the sources it has been told about, and evaluates
// opaque predicates with Go functions keyed by their source.
// It captures the sources that were compiled.
type mockEvaluator struct {
	sources  map[string]expr.Node
	funcs    map[string]func(data map[string]any) (bool, error)
	compiled []string
}

type program struct {
	source string
	fn     func(data map[string]any) (bool, error)
}

var errUnknownSource = errors.New("unknown source")

func newMockEvaluator() *mockEvaluator {
	return &mockEvaluator{
		sources: map[string]expr.Node{
			"true":  expr.Const{Value: true},
			"false": expr.Const{Value: false},
		},
		funcs: map[string]func(map[string]any) (bool, error){},
	}
}

// define makes source parse to n.
func (m *mockEvaluator) define(source string, n expr.Node) {
	m.sources[source] = n
}

// opaque returns a Call with the source, evaluated by fn.
func (m *mockEvaluator) opaque(fn, source string, vars []string, f func(data map[string]any) (bool, error)) expr.Call {
	m.funcs[source] = f
	return expr.Call{Function: fn, Source: source, Vars: vars}
}

func (m *mockEvaluator) Parse(source string) (expr.Node, error) {
	n, ok := m.sources[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownSource, source)
	}
	return n, nil
}

func (m *mockEvaluator) Compile(call *expr.Call) (any, error) {
	f, ok := m.funcs[call.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownSource, call.Source)
	}
	m.compiled = append(m.compiled, call.Source)
	return program{source: call.Source, fn: f}, nil
}

func (m *mockEvaluator) Evaluate(data map[string]any, prog any) (bool, error) {
	p, ok := prog.(program)
	if !ok {
		return false, fmt.Errorf("compiled data type assertion failed")
	}
	return p.fn(data)
}
