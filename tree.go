package triggertree

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ezachrisen/triggertree/expr"
	"github.com/google/uuid"
)

var (
	// ErrNilTrigger is returned when a nil expression is added.
	ErrNilTrigger = errors.New("nil trigger")

	// ErrNoEvaluator is returned when source text or an opaque predicate is
	// added to a tree created without an Evaluator.
	ErrNoEvaluator = errors.New("no evaluator")
)

// A Tree indexes triggers by specificity, so that the most specific triggers
// matching a frame can be found without evaluating every trigger.
//
// A Tree is not safe for concurrent use; see SyncTree.
type Tree struct {
	// root represents the expression true. It is never removed.
	root *Node

	// Triggers that can never match. They are counted and can be removed.
	dead []*Trigger

	// Every trigger in the tree, by ID
	ids map[uuid.UUID]*Trigger

	total int

	// The Evaluator used to parse sources and evaluate opaque predicates
	evaluator Evaluator

	opts options
}

// New returns an empty tree. The evaluator may be nil if triggers are only
// added with AddExpression and use no opaque predicates.
func New(evaluator Evaluator, opts ...Option) *Tree {
	t := Tree{
		root:      &Node{clauses: []*Clause{{}}},
		ids:       map[uuid.UUID]*Trigger{},
		evaluator: evaluator,
		opts: options{
			maxExpansion: DefaultMaxExpansion,
		},
	}
	applyOptions(&t.opts, opts...)
	if t.opts.logger == nil {
		t.opts.logger = slog.New(slog.DiscardHandler)
	}
	return &t
}

// RegisterComparer orders values with the type tag using c. Comparers must be
// registered before triggers are added; changing them afterwards leaves the
// shape of the tree undefined.
func (t *Tree) RegisterComparer(tag string, c Comparer) {
	WithComparer(tag, c)(&t.opts)
}

// RegisterPredicateComparer relates opaque predicates calling fn using c.
// The same restriction as for RegisterComparer applies.
func (t *Tree) RegisterPredicateComparer(fn string, c PredicateComparer) {
	WithPredicateComparer(fn, c)(&t.opts)
}

// Comparers returns the comparers used by the tree.
func (t *Tree) Comparers() *Comparers {
	return &t.opts.comparers
}

// AddTrigger parses source with the tree's Evaluator and adds it.
// See AddExpression.
func (t *Tree) AddTrigger(source string, action any, quantifiers ...expr.Quantifier) (*Trigger, error) {
	if t.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	e, err := t.evaluator.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", source, err)
	}
	return t.AddExpression(e, action, quantifiers...)
}

// AddExpression compiles e, expanded over the quantifiers, and adds it to the
// tree. If the tree already holds a trigger with the same expression and
// action, that trigger is returned and nothing is added.
//
// On error the tree is unchanged. Disjuncts that can never be true are
// dropped and recorded in the trigger's Diagnostics.
func (t *Tree) AddExpression(e expr.Node, action any, quantifiers ...expr.Quantifier) (*Trigger, error) {
	if e == nil {
		return nil, ErrNilTrigger
	}
	quantified := e
	for i := len(quantifiers) - 1; i >= 0; i-- {
		quantified = expr.Quantified{Quantifier: quantifiers[i], Term: quantified}
	}
	clauses, diag, err := t.compile(quantified)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", e, err)
	}
	tr := newTrigger(e, action, quantifiers, clauses)
	tr.Diagnostics = diag

	if !tr.Satisfiable() {
		if i := slices.IndexFunc(t.dead, tr.duplicates); i >= 0 {
			return t.dead[i], nil
		}
		t.opts.logger.Debug("trigger can never match", "id", tr.ID, "trigger", tr.String())
		t.dead = append(t.dead, tr)
		t.ids[tr.ID] = tr
		t.total++
		return tr, nil
	}
	if dup := t.duplicate(tr); dup != nil {
		t.opts.logger.Debug("duplicate trigger", "id", dup.ID, "trigger", tr.String())
		return dup, nil
	}
	t.insert(newNode(tr))
	t.ids[tr.ID] = tr
	t.total++
	t.opts.logger.Debug("added trigger", "id", tr.ID, "trigger", tr.String(), "clauses", len(clauses))
	return tr, nil
}

func (t *Tree) insert(n *Node) {
	cs := &t.opts.comparers
	if n.Relationship(t.root, cs) == Equal {
		t.root.merge(n, cs)
		return
	}
	t.root.add(n, cs)
}

func (t *Tree) duplicate(tr *Trigger) *Trigger {
	cs := &t.opts.comparers
	if relateClauseSets(tr.clauses, t.root.clauses, cs) == Equal {
		if i := slices.IndexFunc(t.root.triggers, tr.duplicates); i >= 0 {
			return t.root.triggers[i]
		}
		return nil
	}
	_, dup := t.root.find(tr, cs, tr.duplicates)
	return dup
}

// RemoveTrigger removes the trigger from the tree. It reports whether the
// trigger was found.
func (t *Tree) RemoveTrigger(tr *Trigger) bool {
	if tr == nil || t.ids[tr.ID] != tr {
		return false
	}
	switch {
	case slices.Contains(t.dead, tr):
		t.dead = slices.DeleteFunc(t.dead, func(d *Trigger) bool { return d == tr })
	case slices.Contains(t.root.triggers, tr):
		t.root.triggers = slices.DeleteFunc(t.root.triggers, func(r *Trigger) bool { return r == tr })
	default:
		cs := &t.opts.comparers
		if !t.root.remove(tr, cs, true) && !t.root.remove(tr, cs, false) {
			return false
		}
	}
	delete(t.ids, tr.ID)
	t.total--
	t.opts.logger.Debug("removed trigger", "id", tr.ID, "trigger", tr.String())
	return true
}

// Trigger returns the trigger with the ID, if it is in the tree.
func (t *Tree) Trigger(id uuid.UUID) (*Trigger, bool) {
	tr, ok := t.ids[id]
	return tr, ok
}

// Matches returns the most specific nodes with triggers that match the frame.
// Within a match, triggers are in the order they were added; matches are in
// depth first order. A node is never returned together with a node that is
// more specific than it.
func (t *Tree) Matches(frame map[string]any) []*Match {
	cs := &t.opts.comparers
	matches := t.root.matches(frame, cs)
	if len(matches) < 2 {
		return matches
	}
	out := make([]*Match, 0, len(matches))
	for _, m := range matches {
		superseded := false
		for _, o := range matches {
			if o != m && m.Node.Relationship(o.Node, cs) == Superset {
				superseded = true
				break
			}
		}
		if !superseded {
			out = append(out, m)
		}
	}
	return out
}

// MatchTriggers returns the triggers of all matches, flattened.
func (t *Tree) MatchTriggers(frame map[string]any) []*Trigger {
	var out []*Trigger
	for _, m := range t.Matches(frame) {
		out = append(out, m.Triggers...)
	}
	return out
}

// TotalTriggers returns the number of triggers in the tree, including those
// that can never match.
func (t *Tree) TotalTriggers() int {
	return t.total
}

// Root returns the node representing the expression true.
func (t *Tree) Root() *Node {
	return t.root
}

// Triggers returns every trigger in the tree, depth first, followed by those
// that can never match.
func (t *Tree) Triggers() []*Trigger {
	out := make([]*Trigger, 0, t.total)
	t.root.walk(func(n *Node) {
		out = append(out, n.triggers...)
	})
	return append(out, t.dead...)
}

// String returns the tree drawn with box-drawing characters.
func (t *Tree) String() string {
	return t.root.String()
}
