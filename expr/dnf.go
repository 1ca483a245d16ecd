package expr

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Conjunction is one disjunct of an expression in disjunctive normal form.
type Conjunction struct {
	// Terms are Compare or Call nodes, all of which must hold.
	Terms []Node

	// Ignored holds sub-expressions (in negation normal form) that must
	// hold but do not contribute to specificity.
	Ignored []Node

	// Bindings records the quantifier bindings that produced the conjunction.
	Bindings map[string]string

	// Optional is set when the conjunction was produced by leaving out
	// an optional sub-expression.
	Optional bool
}

func (c Conjunction) String() string {
	parts := make([]string, 0, len(c.Terms)+len(c.Ignored))
	for _, t := range c.Terms {
		parts = append(parts, t.String())
	}
	for _, t := range c.Ignored {
		parts = append(parts, Ignore{Term: t}.String())
	}
	s := "true"
	if len(parts) > 0 {
		s = strings.Join(parts, " && ")
	}
	if len(c.Bindings) > 0 {
		var b []string
		for _, k := range slices.Sorted(maps.Keys(c.Bindings)) {
			b = append(b, k+"="+c.Bindings[k])
		}
		s += " {" + strings.Join(b, ", ") + "}"
	}
	return s
}

// DNF expands n into disjunctive normal form. Negation is pushed to the leaves
// first. The result is empty when n can never be true. If at any point more
// than limit conjunctions would be produced, DNF fails with ErrExpansionLimit;
// a limit <= 0 means no limit.
func DNF(n Node, limit int) ([]Conjunction, error) {
	nn, err := PushNot(n)
	if err != nil {
		return nil, err
	}
	d := dnf{limit: limit}
	return d.expand(nn)
}

type dnf struct {
	limit int
}

func (d dnf) check(n int) error {
	if d.limit > 0 && n > d.limit {
		return fmt.Errorf("%w: %d conjunctions, limit is %d", ErrExpansionLimit, n, d.limit)
	}
	return nil
}

func (d dnf) expand(n Node) ([]Conjunction, error) {
	switch x := n.(type) {
	case Const:
		if x.Value {
			return []Conjunction{{}}, nil
		}
		return nil, nil
	case Compare, Call:
		return []Conjunction{{Terms: []Node{x}}}, nil
	case And:
		out := []Conjunction{{}}
		for _, t := range x.Terms {
			c, err := d.expand(t)
			if err != nil {
				return nil, err
			}
			if out, err = d.product(out, c); err != nil {
				return nil, err
			}
		}
		return out, nil
	case Or:
		var out []Conjunction
		for _, t := range x.Terms {
			c, err := d.expand(t)
			if err != nil {
				return nil, err
			}
			out = append(out, c...)
			if err := d.check(len(out)); err != nil {
				return nil, err
			}
		}
		return out, nil
	case Optional:
		c, err := d.expand(x.Term)
		if err != nil {
			return nil, err
		}
		c = append(c, Conjunction{Optional: true})
		return c, d.check(len(c))
	case Ignore:
		return []Conjunction{{Ignored: []Node{x.Term}}}, nil
	case Quantified:
		return d.quantified(x)
	case Not:
		return nil, fmt.Errorf("%w: negation of %s was not normalized", ErrInvalidExpression, x.Term)
	}
	return nil, fmt.Errorf("%w: unknown node %T", ErrInvalidExpression, n)
}

func (d dnf) quantified(q Quantified) ([]Conjunction, error) {
	v := q.Quantifier.Variable
	if q.Quantifier.Type == All {
		out := []Conjunction{{}}
		for _, b := range q.Quantifier.Bindings {
			c, err := d.expand(Substitute(q.Term, v, b))
			if err != nil {
				return nil, err
			}
			if out, err = d.product(out, c); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	var out []Conjunction
	for _, b := range q.Quantifier.Bindings {
		c, err := d.expand(Substitute(q.Term, v, b))
		if err != nil {
			return nil, err
		}
		for _, conj := range c {
			conj.Bindings = maps.Clone(conj.Bindings)
			if conj.Bindings == nil {
				conj.Bindings = map[string]string{}
			}
			conj.Bindings[v] = b
			out = append(out, conj)
		}
		if err := d.check(len(out)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// product distributes a over b.
func (d dnf) product(a, b []Conjunction) ([]Conjunction, error) {
	if err := d.check(len(a) * len(b)); err != nil {
		return nil, err
	}
	out := make([]Conjunction, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, merge(x, y))
		}
	}
	return out, nil
}

func merge(a, b Conjunction) Conjunction {
	c := Conjunction{
		Terms:    slices.Concat(a.Terms, b.Terms),
		Ignored:  slices.Concat(a.Ignored, b.Ignored),
		Optional: a.Optional || b.Optional,
	}
	if len(a.Bindings)+len(b.Bindings) > 0 {
		c.Bindings = make(map[string]string, len(a.Bindings)+len(b.Bindings))
		maps.Copy(c.Bindings, a.Bindings)
		maps.Copy(c.Bindings, b.Bindings)
	}
	return c
}
