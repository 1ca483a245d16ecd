package triggertree

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ezachrisen/triggertree/expr"
)

// Clause is a conjunction of predicates, produced from one disjunct of a
// trigger expression.
type Clause struct {
	// Predicates that must all hold. No two of them are inconsistent, and none
	// is implied by another.
	Predicates []*Predicate

	// Ignored expressions must hold for the clause to match, but play no part in
	// relationships.
	Ignored []*Ignored

	// Bindings records the quantifier bindings that produced the clause.
	Bindings map[string]string

	// Optional is set when the clause was produced by leaving out an
	// optional sub-expression.
	Optional bool

	// Subsumed is set when the clause is more specific than another
	// non-optional clause of the same trigger.
	Subsumed bool
}

// Ignored is a sub-expression marked with ignore(...), compiled to its own clauses.
type Ignored struct {
	Expr    expr.Node
	Clauses []*Clause
}

// Matches reports whether the ignored expression holds for the frame.
func (ig *Ignored) Matches(frame map[string]any, cs *Comparers) bool {
	for _, c := range ig.Clauses {
		if c.Matches(frame, cs) {
			return true
		}
	}
	return false
}

func (c *Clause) String() string {
	parts := make([]string, 0, len(c.Predicates)+len(c.Ignored))
	for _, p := range c.Predicates {
		parts = append(parts, p.String())
	}
	for _, ig := range c.Ignored {
		parts = append(parts, expr.Ignore{Term: ig.Expr}.String())
	}
	s := "true"
	if len(parts) > 0 {
		s = strings.Join(parts, " && ")
	}
	if len(c.Bindings) > 0 {
		var b []string
		for _, k := range slices.Sorted(maps.Keys(c.Bindings)) {
			b = append(b, fmt.Sprintf("%s=%s", k, c.Bindings[k]))
		}
		s += " {" + strings.Join(b, ", ") + "}"
	}
	return s
}

// Matches reports whether every predicate and every ignored expression of the
// clause holds for the frame.
func (c *Clause) Matches(frame map[string]any, cs *Comparers) bool {
	if !c.matchesPredicates(frame, cs) {
		return false
	}
	for _, ig := range c.Ignored {
		if !ig.Matches(frame, cs) {
			return false
		}
	}
	return true
}

// matchesPredicates checks the predicates only. Ignored expressions are left
// out, so that the result is implied by a match of any more specific clause.
func (c *Clause) matchesPredicates(frame map[string]any, cs *Comparers) bool {
	for _, p := range c.Predicates {
		if !p.Matches(frame, cs) {
			return false
		}
	}
	return true
}

// Relationship relates c to other, predicate by predicate. A missing predicate
// is universally true, so a clause with fewer constraints is more general.
// If any pair of predicates is inconsistent, so are the clauses.
func (c *Clause) Relationship(other *Clause, cs *Comparers) Relationship {
	for _, p := range c.Predicates {
		for _, q := range other.Predicates {
			if p.Relationship(q, cs) == Inconsistent {
				return Inconsistent
			}
		}
	}
	cImplies := coveredBy(other.Predicates, c.Predicates, cs)
	otherImplies := coveredBy(c.Predicates, other.Predicates, cs)
	switch {
	case cImplies && otherImplies:
		return Equal
	case cImplies:
		return Subset
	case otherImplies:
		return Superset
	}
	return Incomparable
}

// coveredBy reports whether every predicate in want is implied by some
// predicate in have.
func coveredBy(want, have []*Predicate, cs *Comparers) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h.Relationship(w, cs).implies() {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
