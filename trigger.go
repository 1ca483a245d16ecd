package triggertree

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ezachrisen/triggertree/expr"
	"github.com/google/uuid"
)

// A Trigger is an expression added to a Tree, together with the clauses it
// compiles to and an action that is opaque to the tree.
//
// Triggers are identified by pointer: removing a trigger removes exactly the
// instance that was added.
type Trigger struct {
	// ID is assigned when the trigger is added.
	ID uuid.UUID

	// The expression as added, without quantifiers.
	Expr expr.Node

	// Action is returned with the trigger when it matches. Not used by the tree.
	Action any

	// Quantifiers the expression was expanded over, outermost first.
	Quantifiers []expr.Quantifier

	// Diagnostics collects the disjuncts that were dropped because they
	// could never be true. It is nil or a *multierror.Error.
	Diagnostics error

	clauses []*Clause
	key     string
}

func newTrigger(e expr.Node, action any, quantifiers []expr.Quantifier, clauses []*Clause) *Trigger {
	var sb strings.Builder
	sb.WriteString(e.String())
	for _, q := range quantifiers {
		fmt.Fprintf(&sb, " %s(%s in %s)", q.Type, q.Variable, strings.Join(q.Bindings, ","))
	}
	return &Trigger{
		ID:          uuid.New(),
		Expr:        e,
		Action:      action,
		Quantifiers: quantifiers,
		clauses:     clauses,
		key:         sb.String(),
	}
}

func (t *Trigger) String() string {
	return t.key
}

// Clauses returns the disjuncts of the trigger's expression. A trigger
// without clauses can never match.
func (t *Trigger) Clauses() []*Clause {
	return t.clauses
}

// Satisfiable reports whether any frame could match the trigger.
func (t *Trigger) Satisfiable() bool {
	return len(t.clauses) > 0
}

// Matches reports whether any clause of the trigger matches the frame.
func (t *Trigger) Matches(frame map[string]any, cs *Comparers) bool {
	for _, c := range t.clauses {
		if c.Matches(frame, cs) {
			return true
		}
	}
	return false
}

// MatchingClauses returns the clauses of the trigger that match the frame.
// Their Bindings tell which quantifier bindings made the trigger true.
func (t *Trigger) MatchingClauses(frame map[string]any, cs *Comparers) []*Clause {
	var out []*Clause
	for _, c := range t.clauses {
		if c.Matches(frame, cs) {
			out = append(out, c)
		}
	}
	return out
}

// Relationship relates the clauses of t to those of other.
func (t *Trigger) Relationship(other *Trigger, cs *Comparers) Relationship {
	return relateClauseSets(t.clauses, other.clauses, cs)
}

// duplicates reports whether t and other have the same expression and action.
func (t *Trigger) duplicates(other *Trigger) bool {
	return t.key == other.key && reflect.DeepEqual(t.Action, other.Action)
}

// relateClauseSets relates two disjunctions of clauses. Subsumed clauses are
// left out. A implies B when every clause of A is Equal to or a Subset of
// some clause of B.
//
// When A and B imply each other, the one carrying more optional
// specializations (see boost) is the more specific. This keeps
// the relationship transitive.
func relateClauseSets(a, b []*Clause, cs *Comparers) Relationship {
	a, b = active(a), active(b)
	aImplies := impliesAll(a, b, cs)
	bImplies := impliesAll(b, a, cs)
	switch {
	case aImplies && bImplies:
		ba, bb := boost(a, cs), boost(b, cs)
		switch {
		case ba > bb:
			return Subset
		case ba < bb:
			return Superset
		}
		return Equal
	case aImplies:
		return Subset
	case bImplies:
		return Superset
	}
	if len(a) == 0 || len(b) == 0 {
		return Incomparable
	}
	for _, x := range a {
		for _, y := range b {
			if x.Relationship(y, cs) != Inconsistent {
				return Incomparable
			}
		}
	}
	return Inconsistent
}

func active(clauses []*Clause) []*Clause {
	n := 0
	for _, c := range clauses {
		if !c.Subsumed {
			n++
		}
	}
	if n == len(clauses) || n == 0 {
		return clauses
	}
	out := make([]*Clause, 0, n)
	for _, c := range clauses {
		if !c.Subsumed {
			out = append(out, c)
		}
	}
	return out
}

func impliesAll(a, b []*Clause, cs *Comparers) bool {
	for _, x := range a {
		found := false
		for _, y := range b {
			if x.Relationship(y, cs).implies() {
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

// boost counts the clauses that specialize an optional clause of the same
// set. An expression like `a && optional(b)` produces the clauses `a && b` and
// an optional `a`, so it is more specific than plain `a` even though the two
// are logically equivalent.
func boost(clauses []*Clause, cs *Comparers) int {
	n := 0
	for _, x := range clauses {
		for _, y := range clauses {
			if x != y && y.Optional && x.Relationship(y, cs) == Subset {
				n++
				break
			}
		}
	}
	return n
}
