package expr_test

import (
	"errors"
	"testing"

	"github.com/ezachrisen/triggertree/expr"
	"github.com/matryer/is"
)

func TestString(t *testing.T) {
	is := is.New(t)

	e := expr.AllOf(
		expr.Has("user"),
		expr.AnyOf(expr.Gt("age", 18), expr.Eq("name", "bob")),
		expr.Not{Term: expr.Le("x", 1.5)},
		expr.Optional{Term: expr.Ne("y", nil)},
		expr.Ignore{Term: expr.Compare{Path: "z", Op: expr.NotExists}},
	)
	is.Equal(e.String(), `exists(user) && (age > 18 || name == "bob") && !(x <= 1.5) && optional(y != null) && ignore(!exists(z))`)
	is.Equal(expr.And{}.String(), "true")
	is.Equal(expr.Or{}.String(), "false")

	c := expr.Call{Source: "near(x, 5)", Bindings: map[string]string{"x": "home"}, Negated: true}
	is.Equal(c.String(), "!(near(x, 5) [x=home])")

	q := expr.Quantified{
		Quantifier: expr.Quantifier{Variable: "x", Type: expr.Any, Bindings: []string{"a", "b"}},
		Term:       expr.Has("x.zip"),
	}
	is.Equal(q.String(), "any(x, exists(x.zip))")
}

func TestPushNot(t *testing.T) {
	cases := map[string]struct {
		in   expr.Node
		want string
	}{
		"comparison":   {expr.Not{Term: expr.Lt("x", 1)}, "x >= 1"},
		"exists":       {expr.Not{Term: expr.Has("x")}, "!exists(x)"},
		"double":       {expr.Not{Term: expr.Not{Term: expr.Eq("x", 1)}}, "x == 1"},
		"de morgan and": {expr.Not{Term: expr.AllOf(expr.Eq("a", 1), expr.Gt("b", 2))}, "a != 1 || b <= 2"},
		"de morgan or": {expr.Not{Term: expr.AnyOf(expr.Eq("a", 1), expr.Has("b"))}, "a != 1 && !exists(b)"},
		"const":        {expr.Not{Term: expr.Const{Value: true}}, "false"},
		"call":         {expr.Not{Term: expr.Call{Source: "f(x)"}}, "!(f(x))"},
		"ignore":       {expr.Not{Term: expr.Ignore{Term: expr.Eq("a", 1)}}, "ignore(a != 1)"},
		"optional":     {expr.Optional{Term: expr.Not{Term: expr.Has("a")}}, "optional(!exists(a))"},
		"all to any": {
			expr.Not{Term: expr.Quantified{
				Quantifier: expr.Quantifier{Variable: "x", Type: expr.All, Bindings: []string{"a"}},
				Term:       expr.Has("x"),
			}},
			"any(x, !exists(x))",
		},
	}

	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			is := is.New(t)
			n, err := expr.PushNot(c.in)
			is.NoErr(err)
			is.Equal(n.String(), c.want)
		})
	}
}

func TestPushNotErrors(t *testing.T) {
	is := is.New(t)

	_, err := expr.PushNot(expr.Not{Term: expr.Optional{Term: expr.Has("a")}})
	is.True(errors.Is(err, expr.ErrInvalidExpression))

	_, err = expr.PushNot(nil)
	is.True(errors.Is(err, expr.ErrInvalidExpression))

	_, err = expr.PushNot(expr.AllOf(expr.Has("a"), nil))
	is.True(errors.Is(err, expr.ErrInvalidExpression))
}

func conjunctions(t *testing.T, n expr.Node) []string {
	t.Helper()
	conjs, err := expr.DNF(n, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := make([]string, len(conjs))
	for i, c := range conjs {
		out[i] = c.String()
		if c.Optional {
			out[i] += " (optional)"
		}
	}
	return out
}

func TestDNF(t *testing.T) {
	is := is.New(t)
	a, b, c, d := expr.Has("a"), expr.Has("b"), expr.Has("c"), expr.Has("d")

	is.Equal(conjunctions(t, expr.AllOf(expr.AnyOf(a, b), expr.AnyOf(c, d))), []string{
		"exists(a) && exists(c)",
		"exists(a) && exists(d)",
		"exists(b) && exists(c)",
		"exists(b) && exists(d)",
	})

	is.Equal(conjunctions(t, expr.Not{Term: expr.AllOf(a, expr.AnyOf(b, c))}), []string{
		"!exists(a)",
		"!exists(b) && !exists(c)",
	})

	is.Equal(conjunctions(t, expr.AllOf(a, expr.Optional{Term: b})), []string{
		"exists(a) && exists(b)",
		"exists(a) (optional)",
	})

	is.Equal(conjunctions(t, expr.AllOf(a, expr.Ignore{Term: expr.AnyOf(b, c)})), []string{
		"exists(a) && ignore(exists(b) || exists(c))",
	})

	// constants
	is.Equal(conjunctions(t, expr.AllOf(a, expr.Const{Value: true})), []string{"exists(a)"})
	is.Equal(len(conjunctions(t, expr.AllOf(a, expr.Const{Value: false}))), 0)
	is.Equal(conjunctions(t, expr.AnyOf(a, expr.Const{Value: true})), []string{"exists(a)", "true"})
}

func TestDNFQuantifiers(t *testing.T) {
	is := is.New(t)

	zip := expr.AllOf(expr.Has("x.zip"), expr.Eq("x.country", "us"))
	all := expr.Quantified{
		Quantifier: expr.Quantifier{Variable: "x", Type: expr.All, Bindings: []string{"home", "work"}},
		Term:       zip,
	}
	is.Equal(conjunctions(t, all), []string{
		`exists(home.zip) && home.country == "us" && exists(work.zip) && work.country == "us"`,
	})

	anyOf := all
	anyOf.Quantifier.Type = expr.Any
	is.Equal(conjunctions(t, anyOf), []string{
		`exists(home.zip) && home.country == "us" {x=home}`,
		`exists(work.zip) && work.country == "us" {x=work}`,
	})

	// nested quantifiers record both bindings
	nested := expr.Quantified{
		Quantifier: expr.Quantifier{Variable: "u", Type: expr.Any, Bindings: []string{"users.a", "users.b"}},
		Term: expr.Quantified{
			Quantifier: expr.Quantifier{Variable: "x", Type: expr.Any, Bindings: []string{"u.home"}},
			Term:       expr.Has("x.zip"),
		},
	}
	is.Equal(conjunctions(t, nested), []string{
		"exists(users.a.home.zip) {u=users.a, x=users.a.home}",
		"exists(users.b.home.zip) {u=users.b, x=users.b.home}",
	})

	// no bindings: all is true, any is false
	empty := expr.Quantified{Quantifier: expr.Quantifier{Variable: "x"}, Term: expr.Has("x")}
	is.Equal(conjunctions(t, empty), []string{"true"})
	empty.Quantifier.Type = expr.Any
	is.Equal(len(conjunctions(t, empty)), 0)
}

func TestDNFLimit(t *testing.T) {
	is := is.New(t)

	terms := make([]expr.Node, 11)
	for i := range terms {
		terms[i] = expr.AnyOf(expr.Eq("x", i), expr.Eq("y", i))
	}

	// 2^11 conjunctions
	_, err := expr.DNF(expr.AllOf(terms...), 1000)
	is.True(errors.Is(err, expr.ErrExpansionLimit))

	conjs, err := expr.DNF(expr.AllOf(terms[:10]...), 1024)
	is.NoErr(err)
	is.Equal(len(conjs), 1024)

	conjs, err = expr.DNF(expr.AllOf(terms...), 0)
	is.NoErr(err)
	is.Equal(len(conjs), 2048)
}

func TestSubstitute(t *testing.T) {
	is := is.New(t)

	e := expr.AllOf(
		expr.Has("x"),
		expr.Eq("x.zip", 1),
		expr.Eq("xx", 2),
		expr.Call{Source: "near(x, 5)", Vars: []string{"x"}},
		expr.Call{Source: "f(y)", Vars: []string{"y"}},
	)
	got := expr.Substitute(e, "x", "user.home")
	is.Equal(got.String(), "exists(user.home) && user.home.zip == 1 && xx == 2 && near(x, 5) [x=user.home] && f(y)")

	// the original is unchanged
	is.Equal(e.String(), "exists(x) && x.zip == 1 && xx == 2 && near(x, 5) && f(y)")

	// an inner quantifier over the same variable shadows it
	inner := expr.Quantified{
		Quantifier: expr.Quantifier{Variable: "x", Type: expr.Any, Bindings: []string{"x.a"}},
		Term:       expr.Has("x"),
	}
	got = expr.Substitute(inner, "x", "top")
	q := got.(expr.Quantified)
	is.Equal(q.Quantifier.Bindings, []string{"top.a"})
	is.Equal(q.Term.String(), "exists(x)")
}

func TestOp(t *testing.T) {
	is := is.New(t)
	for _, op := range []expr.Op{expr.Equal, expr.NotEqual, expr.Less, expr.LessEqual, expr.Greater, expr.GreaterEqual, expr.Exists, expr.NotExists} {
		is.Equal(op.Negate().Negate(), op)
		is.Equal(op.Flip().Flip(), op)
	}
	is.Equal(expr.Less.Flip(), expr.Greater)
	is.Equal(expr.Equal.Flip(), expr.Equal)
	is.Equal(expr.Op(99).String(), "unknown")
}

func TestQuantifierType(t *testing.T) {
	is := is.New(t)

	var q expr.QuantifierType
	is.NoErr(q.UnmarshalText([]byte("ANY")))
	is.Equal(q, expr.Any)
	is.NoErr(q.UnmarshalText([]byte("all")))
	is.Equal(q, expr.All)

	err := q.UnmarshalText([]byte("some"))
	is.True(errors.Is(err, expr.ErrInvalidExpression))

	b, err := expr.Any.MarshalText()
	is.NoErr(err)
	is.Equal(string(b), "any")
}
