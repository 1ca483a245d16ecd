// Package expr defines the boolean expression language indexed by a trigger tree.
//
// An expression is a tree of Node values. The set of node kinds is closed:
//
//	And, Or, Not       logical connectives
//	Compare            a comparison of a variable path against a value
//	Call               an opaque predicate, evaluated by an Evaluator
//	Const              the literals true and false
//	Optional           a sub-expression that may or may not hold
//	Ignore             a sub-expression that must hold, but does not make
//	                   a trigger more specific
//	Quantified         a sub-expression expanded over a Quantifier
//
// Expressions are usually produced by parsing source text (see package cel), but can
// also be constructed directly, which allows comparisons against domain values that
// have no literal syntax.
package expr

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Node is one of the expression node kinds declared in this package.
type Node interface {
	String() string
	node()
}

// And is true when all of its terms are true. An And with no terms is true.
type And struct {
	Terms []Node
}

// Or is true when any of its terms is true. An Or with no terms is false.
type Or struct {
	Terms []Node
}

// Not negates its term.
type Not struct {
	Term Node
}

// Compare compares the value found at Path in a frame with Value.
// For the Exists and NotExists operators, Value is ignored.
type Compare struct {
	Path  string
	Op    Op
	Value any
}

// Call is a predicate the tree cannot reason about structurally. Its Source is
// handed to an Evaluator for compilation, and the compiled program is run
// against the frame at match time.
type Call struct {
	// Function is the name of the outermost function, e.g. "startsWith" or "_==_".
	Function string

	// Source of the predicate, in the evaluator's syntax.
	Source string

	// Vars are the root variable names referenced by Source.
	Vars []string

	// Bindings rename variables referenced by Source to frame paths. They are
	// added when a quantifier is expanded.
	Bindings map[string]string

	Negated bool
}

// Const is the literal true or false.
type Const struct {
	Value bool
}

// Optional marks Term as not required. A trigger using it matches whether
// or not Term holds, but is considered more specific than one without it.
type Optional struct {
	Term Node
}

// Ignore marks Term as required for matching but not for specificity.
type Ignore struct {
	Term Node
}

// Quantified expands Term over the bindings of a Quantifier.
type Quantified struct {
	Quantifier Quantifier
	Term       Node
}

func (And) node()        {}
func (Or) node()         {}
func (Not) node()        {}
func (Compare) node()    {}
func (Call) node()       {}
func (Const) node()      {}
func (Optional) node()   {}
func (Ignore) node()     {}
func (Quantified) node() {}

func (n And) String() string { return joinTerms(n.Terms, " && ", "true") }
func (n Or) String() string  { return joinTerms(n.Terms, " || ", "false") }
func (n Not) String() string { return "!(" + n.Term.String() + ")" }

func (n Compare) String() string {
	switch n.Op {
	case Exists:
		return "exists(" + n.Path + ")"
	case NotExists:
		return "!exists(" + n.Path + ")"
	}
	return fmt.Sprintf("%s %s %s", n.Path, n.Op, FormatValue(n.Value))
}

func (n Call) String() string {
	s := n.Source
	if len(n.Bindings) > 0 {
		var b []string
		for _, k := range slices.Sorted(maps.Keys(n.Bindings)) {
			b = append(b, k+"="+n.Bindings[k])
		}
		s += " [" + strings.Join(b, ", ") + "]"
	}
	if n.Negated {
		return "!(" + s + ")"
	}
	return s
}

func (n Const) String() string {
	if n.Value {
		return "true"
	}
	return "false"
}

func (n Optional) String() string { return "optional(" + n.Term.String() + ")" }
func (n Ignore) String() string   { return "ignore(" + n.Term.String() + ")" }

func (n Quantified) String() string {
	return fmt.Sprintf("%s(%s, %s)", n.Quantifier.Type, n.Quantifier.Variable, n.Term)
}

func joinTerms(terms []Node, sep, empty string) string {
	switch len(terms) {
	case 0:
		return empty
	case 1:
		return terms[0].String()
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		switch t.(type) {
		case And, Or:
			parts[i] = "(" + t.String() + ")"
		default:
			parts[i] = t.String()
		}
	}
	return strings.Join(parts, sep)
}

// FormatValue renders a comparison value the way it would appear in source.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}

// Helpers for building expressions in code.

// Eq returns path == v.
func Eq(path string, v any) Compare { return Compare{Path: path, Op: Equal, Value: v} }

// Ne returns path != v.
func Ne(path string, v any) Compare { return Compare{Path: path, Op: NotEqual, Value: v} }

// Lt returns path < v.
func Lt(path string, v any) Compare { return Compare{Path: path, Op: Less, Value: v} }

// Le returns path <= v.
func Le(path string, v any) Compare { return Compare{Path: path, Op: LessEqual, Value: v} }

// Gt returns path > v.
func Gt(path string, v any) Compare { return Compare{Path: path, Op: Greater, Value: v} }

// Ge returns path >= v.
func Ge(path string, v any) Compare { return Compare{Path: path, Op: GreaterEqual, Value: v} }

// Has returns exists(path).
func Has(path string) Compare { return Compare{Path: path, Op: Exists} }

// AllOf returns the conjunction of terms.
func AllOf(terms ...Node) And { return And{Terms: terms} }

// AnyOf returns the disjunction of terms.
func AnyOf(terms ...Node) Or { return Or{Terms: terms} }
