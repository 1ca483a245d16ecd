package triggertree_test

import (
	"errors"
	"fmt"
	"maps"
	"testing"

	"github.com/ezachrisen/triggertree"
	"github.com/ezachrisen/triggertree/expr"
	"github.com/matryer/is"
)

// nearby builds "near" predicates on the mock evaluator: near(v, r) is true
// when the distance stored at v is at most r.
type nearby struct {
	ev    *mockEvaluator
	radii map[string]float64
}

func (n *nearby) near(v string, r float64) expr.Call {
	source := fmt.Sprintf("near(%s, %g)", v, r)
	n.radii[source] = r
	return n.ev.opaque("near", source, []string{v}, func(data map[string]any) (bool, error) {
		d, ok := data[v].(float64)
		if !ok {
			return false, errMissing
		}
		return d <= r, nil
	})
}

// Relationship orders near predicates on the same variable by radius.
func (n *nearby) Relationship(a, b *triggertree.Predicate) triggertree.Relationship {
	if a.Call.Negated || b.Call.Negated || a.Call.Vars[0] != b.Call.Vars[0] ||
		!maps.Equal(a.Call.Bindings, b.Call.Bindings) {
		return triggertree.Incomparable
	}
	ra, rb := n.radii[a.Call.Source], n.radii[b.Call.Source]
	switch {
	case ra < rb:
		return triggertree.Subset
	case ra > rb:
		return triggertree.Superset
	}
	return triggertree.Equal
}

func newNearby() (*nearby, *triggertree.Tree) {
	n := &nearby{ev: newMockEvaluator(), radii: map[string]float64{}}
	return n, triggertree.New(n.ev, triggertree.WithPredicateComparer("near", n))
}

func TestPredicateComparer(t *testing.T) {
	is := is.New(t)
	n, tree := newNearby()

	for _, c := range []struct {
		r      float64
		action string
	}{
		{5, "close"},
		{10, "nearby"},
		{1, "very close"},
	} {
		_, err := tree.AddExpression(n.near("loc", c.r), c.action)
		is.NoErr(err)
	}
	is.True(tree.VerifyTree() == nil)

	// one chain, most general first
	is.Equal(tree.String(), "true\n"+
		"└── near(loc, 10) [nearby]\n"+
		"    └── near(loc, 5) [close]\n"+
		"        └── near(loc, 1) [very close]\n")

	is.Equal(actions(tree.MatchTriggers(map[string]any{"loc": 0.5})), []any{"very close"})
	is.Equal(actions(tree.MatchTriggers(map[string]any{"loc": 3.0})), []any{"close"})
	is.Equal(actions(tree.MatchTriggers(map[string]any{"loc": 8.0})), []any{"nearby"})
	is.Equal(len(tree.Matches(map[string]any{"loc": 20.0})), 0)

	// each source is compiled once per predicate
	is.Equal(n.ev.compiled, []string{"near(loc, 5)", "near(loc, 10)", "near(loc, 1)"})
}

func TestNegatedCall(t *testing.T) {
	is := is.New(t)
	n, tree := newNearby()

	close5 := n.near("loc", 5)
	in, err := tree.AddExpression(close5, "in")
	is.NoErr(err)
	out, err := tree.AddExpression(expr.Not{Term: close5}, "out")
	is.NoErr(err)
	is.Equal(in.Relationship(out, tree.Comparers()), triggertree.Inconsistent)

	is.Equal(actions(tree.MatchTriggers(map[string]any{"loc": 3.0})), []any{"in"})
	is.Equal(actions(tree.MatchTriggers(map[string]any{"loc": 8.0})), []any{"out"})

	// an evaluation error is false, negated or not
	is.Equal(len(tree.Matches(map[string]any{})), 0)
	is.Equal(len(tree.Matches(map[string]any{"loc": "far away"})), 0)

	// a call and its negation in one conjunction can never be true
	never, err := tree.AddExpression(expr.AllOf(close5, expr.Not{Term: close5}), "never")
	is.NoErr(err)
	is.True(!never.Satisfiable())
	is.True(errors.Is(never.Diagnostics, triggertree.ErrInconsistentClause))
}

func TestQuantifiedCall(t *testing.T) {
	is := is.New(t)
	n, tree := newNearby()

	q := expr.Quantifier{Variable: "x", Type: expr.Any, Bindings: []string{"home", "work"}}
	tr, err := tree.AddExpression(n.near("x", 5), "commute", q)
	is.NoErr(err)
	is.Equal(len(tr.Clauses()), 2)

	frame := map[string]any{"home": 12.0, "work": 2.0}
	is.Equal(actions(tree.MatchTriggers(frame)), []any{"commute"})

	clauses := tr.MatchingClauses(frame, tree.Comparers())
	is.Equal(len(clauses), 1)
	is.Equal(clauses[0].Bindings, map[string]string{"x": "work"})
	is.Equal(clauses[0].String(), "near(x, 5) [x=work] {x=work}")

	is.Equal(len(tree.Matches(map[string]any{"home": 12.0})), 0)

	// every binding must hold
	q.Type = expr.All
	both, err := tree.AddExpression(n.near("x", 5), "local", q)
	is.NoErr(err)
	is.Equal(len(both.Clauses()), 1)
	is.Equal(actions(tree.MatchTriggers(map[string]any{"home": 1.0, "work": 2.0})), []any{"local"})
}

func TestCallErrors(t *testing.T) {
	is := is.New(t)

	call := expr.Call{Function: "near", Source: "near(loc, 5)", Vars: []string{"loc"}}

	_, err := triggertree.New(nil).AddExpression(call, "x")
	is.True(errors.Is(err, triggertree.ErrNoEvaluator))

	tree := triggertree.New(newMockEvaluator())
	_, err = tree.AddExpression(call, "x")
	is.True(errors.Is(err, errUnknownSource))
	is.Equal(tree.TotalTriggers(), 0)

	_, err = tree.AddTrigger("no such source", "x")
	is.True(errors.Is(err, errUnknownSource))
}

func TestMockDefinitions(t *testing.T) {
	is := is.New(t)
	ev := newMockEvaluator()
	ev.define("adult", expr.AllOf(expr.Has("user"), expr.Ge("user.age", 18)))
	tree := triggertree.New(ev)

	_, err := tree.AddTrigger("adult", "adult")
	is.NoErr(err)
	_, err = tree.AddTrigger("true", "anyone")
	is.NoErr(err)

	frame := map[string]any{"user": map[string]any{"age": 40}}
	is.Equal(actions(tree.MatchTriggers(frame)), []any{"adult"})
	is.Equal(actions(tree.MatchTriggers(map[string]any{})), []any{"anyone"})
	is.Equal(len(ev.compiled), 0)
}
