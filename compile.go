package triggertree

import (
	"errors"
	"fmt"

	"github.com/ezachrisen/triggertree/expr"
	"github.com/hashicorp/go-multierror"
)

// ErrInconsistentClause is recorded in a trigger's Diagnostics for each
// disjunct that can never be true, such as `x == 1 && x == 2`.
var ErrInconsistentClause = errors.New("inconsistent clause")

// compile expands e into clauses. Disjuncts that can never be true are dropped
// and reported in diag; err is only set when the expression as a whole cannot
// be compiled.
func (t *Tree) compile(e expr.Node) (clauses []*Clause, diag error, err error) {
	conjs, err := expr.DNF(e, t.opts.maxExpansion)
	if err != nil {
		return nil, nil, err
	}
	var merr *multierror.Error
	for _, conj := range conjs {
		c, err := t.compileConjunction(conj)
		switch {
		case errors.Is(err, ErrInconsistentClause):
			t.opts.logger.Debug("dropping clause", "clause", conj.String(), "reason", err)
			merr = multierror.Append(merr, err)
			continue
		case err != nil:
			return nil, nil, err
		}
		clauses = append(clauses, c)
	}
	clauses = dedupeClauses(clauses)
	markSubsumed(clauses, &t.opts.comparers)
	return clauses, merr.ErrorOrNil(), nil
}

// compileConjunction builds a clause from one disjunct, removing redundant
// predicates and compiling opaque ones.
func (t *Tree) compileConjunction(conj expr.Conjunction) (*Clause, error) {
	cs := &t.opts.comparers
	c := &Clause{
		Bindings: conj.Bindings,
		Optional: conj.Optional,
	}
	for _, term := range conj.Terms {
		p, err := t.predicate(term)
		if err != nil {
			return nil, err
		}
		c.Predicates, err = addPredicate(c.Predicates, p, cs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, conj)
		}
	}
	for _, n := range conj.Ignored {
		ig, err := t.compileIgnored(n)
		if err != nil {
			return nil, err
		}
		if len(ig.Clauses) == 0 {
			return nil, fmt.Errorf("%w: %s can never be true", ErrInconsistentClause, expr.Ignore{Term: n})
		}
		c.Ignored = append(c.Ignored, ig)
	}
	return c, nil
}

func (t *Tree) compileIgnored(n expr.Node) (*Ignored, error) {
	conjs, err := expr.DNF(n, t.opts.maxExpansion)
	if err != nil {
		return nil, err
	}
	ig := &Ignored{Expr: n}
	for _, conj := range conjs {
		c, err := t.compileConjunction(conj)
		switch {
		case errors.Is(err, ErrInconsistentClause):
			continue
		case err != nil:
			return nil, err
		}
		ig.Clauses = append(ig.Clauses, c)
	}
	return ig, nil
}

func (t *Tree) predicate(term expr.Node) (*Predicate, error) {
	switch x := term.(type) {
	case expr.Compare:
		return &Predicate{Path: x.Path, Op: x.Op, Value: x.Value}, nil
	case expr.Call:
		if t.evaluator == nil {
			return nil, fmt.Errorf("compiling %s: %w", x, ErrNoEvaluator)
		}
		prog, err := t.evaluator.Compile(&x)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", x, err)
		}
		ev := t.evaluator
		return &Predicate{
			Call: &x,
			program: func(data map[string]any) (bool, error) {
				return ev.Evaluate(data, prog)
			},
		}, nil
	}
	return nil, fmt.Errorf("%w: unexpected term %T", expr.ErrInvalidExpression, term)
}

// addPredicate adds p to a clause's predicates. A predicate implied by one
// already present is dropped, and p replaces those it implies.
func addPredicate(preds []*Predicate, p *Predicate, cs *Comparers) ([]*Predicate, error) {
	kept := preds[:0:0]
	for _, q := range preds {
		switch q.Relationship(p, cs) {
		case Inconsistent:
			return nil, fmt.Errorf("%w: %s contradicts %s", ErrInconsistentClause, p, q)
		case Equal, Subset:
			return preds, nil
		case Superset:
			continue
		}
		kept = append(kept, q)
	}
	return append(kept, p), nil
}

// dedupeClauses removes repeated clauses. A clause that is both optional and
// required is kept as required.
func dedupeClauses(clauses []*Clause) []*Clause {
	seen := make(map[string]*Clause, len(clauses))
	out := clauses[:0]
	for _, c := range clauses {
		k := c.String()
		if prev, ok := seen[k]; ok {
			prev.Optional = prev.Optional && c.Optional
			continue
		}
		seen[k] = c
		out = append(out, c)
	}
	return out
}

// markSubsumed flags clauses that strictly specialize a required clause of the
// same set. They are implied by that clause and add nothing to the set.
func markSubsumed(clauses []*Clause, cs *Comparers) {
	for _, c := range clauses {
		for _, o := range clauses {
			if o != c && !o.Optional && c.Relationship(o, cs) == Subset {
				c.Subsumed = true
				break
			}
		}
	}
}
