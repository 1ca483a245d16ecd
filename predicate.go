package triggertree

import (
	"maps"

	"github.com/ezachrisen/triggertree/expr"
)

// Predicate is a single term of a clause. It is either a comparison of the
// value at Path with Value, or an opaque Call evaluated by the tree's Evaluator.
type Predicate struct {
	Path  string
	Op    expr.Op
	Value any

	// Call is set for opaque predicates; Path, Op and Value are then unused.
	Call *expr.Call

	// program evaluates Call against a frame.
	program func(data map[string]any) (bool, error)
}

func (p *Predicate) String() string {
	if p.Call != nil {
		return p.Call.String()
	}
	return expr.Compare{Path: p.Path, Op: p.Op, Value: p.Value}.String()
}

// Matches reports whether the predicate holds for the frame. Evaluation errors
// of opaque predicates are reported as false.
func (p *Predicate) Matches(frame map[string]any, cs *Comparers) bool {
	if p.Call != nil {
		return p.matchesCall(frame)
	}
	v, found := Lookup(frame, p.Path)
	switch p.Op {
	case expr.Exists:
		return found
	case expr.NotExists:
		return !found
	}
	if !found {
		return false
	}
	switch p.Op {
	case expr.Equal:
		return cs.equal(v, p.Value)
	case expr.NotEqual:
		return !cs.equal(v, p.Value)
	}
	c, ok := cs.compare(v, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case expr.Less:
		return c < 0
	case expr.LessEqual:
		return c <= 0
	case expr.Greater:
		return c > 0
	case expr.GreaterEqual:
		return c >= 0
	}
	return false
}

func (p *Predicate) matchesCall(frame map[string]any) bool {
	if p.program == nil {
		return false
	}
	data := frame
	if len(p.Call.Bindings) > 0 {
		data = make(map[string]any, len(frame)+len(p.Call.Bindings))
		maps.Copy(data, frame)
		for v, path := range p.Call.Bindings {
			if val, ok := Lookup(frame, path); ok {
				data[v] = val
			} else {
				delete(data, v)
			}
		}
	}
	ok, err := p.program(data)
	if err != nil {
		return false
	}
	return ok != p.Call.Negated
}

// Relationship relates p to other.
func (p *Predicate) Relationship(other *Predicate, cs *Comparers) Relationship {
	switch {
	case p.Call != nil && other.Call != nil:
		return p.relateCalls(other, cs)
	case p.Call != nil || other.Call != nil:
		return Incomparable
	case p.Path != other.Path:
		return Incomparable
	}
	return relateComparisons(p, other, cs)
}

func (p *Predicate) relateCalls(other *Predicate, cs *Comparers) Relationship {
	a, b := p.Call, other.Call
	if a.Source == b.Source && maps.Equal(a.Bindings, b.Bindings) {
		if a.Negated == b.Negated {
			return Equal
		}
		return Inconsistent
	}
	if a.Function == b.Function && cs != nil {
		if pc, ok := cs.Predicates[a.Function]; ok {
			return pc.Relationship(p, other)
		}
	}
	return Incomparable
}

// relateComparisons relates two comparisons on the same path.
//
// Value comparisons (==, <, <=, >, >=) are treated as intervals over the
// ordered values, != as the complement of a point. All of them require the
// variable to be present, so they imply exists and contradict !exists.
func relateComparisons(a, b *Predicate, cs *Comparers) Relationship {
	switch {
	case a.Op == expr.Exists && b.Op == expr.Exists,
		a.Op == expr.NotExists && b.Op == expr.NotExists:
		return Equal
	case a.Op == expr.NotExists || b.Op == expr.NotExists:
		return Inconsistent
	case a.Op == expr.Exists:
		return Superset
	case b.Op == expr.Exists:
		return Subset
	case a.Op == expr.NotEqual && b.Op == expr.NotEqual:
		if cs.equal(a.Value, b.Value) {
			return Equal
		}
		return Incomparable
	case a.Op == expr.NotEqual:
		return relateNotEqual(a, b, cs)
	case b.Op == expr.NotEqual:
		return relateNotEqual(b, a, cs).Inverse()
	}

	ia, ib := intervalOf(a), intervalOf(b)
	if a.Op == expr.Equal && b.Op == expr.Equal {
		if cs.equal(a.Value, b.Value) {
			return Equal
		}
		return Inconsistent
	}
	if _, ok := cs.compare(a.Value, b.Value); !ok {
		return Incomparable
	}
	aInB := ib.contains(ia, cs)
	bInA := ia.contains(ib, cs)
	switch {
	case aInB && bInA:
		return Equal
	case aInB:
		return Subset
	case bInA:
		return Superset
	case ia.disjoint(ib, cs):
		return Inconsistent
	}
	return Incomparable
}

// relateNotEqual relates ne (x != v) to an interval comparison other.
func relateNotEqual(ne, other *Predicate, cs *Comparers) Relationship {
	if other.Op == expr.Equal {
		if cs.equal(ne.Value, other.Value) {
			return Inconsistent
		}
		return Superset
	}
	if _, ok := cs.compare(ne.Value, other.Value); !ok {
		return Incomparable
	}
	point := interval{lo: ne.Value, hi: ne.Value, loIncl: true, hiIncl: true}
	if intervalOf(other).disjoint(point, cs) {
		return Superset
	}
	return Incomparable
}

// interval is a range of ordered values. A nil bound with the matching
// unbounded flag set stands for infinity.
type interval struct {
	lo, hi         any
	loInf, hiInf   bool
	loIncl, hiIncl bool
}

func intervalOf(p *Predicate) interval {
	switch p.Op {
	case expr.Less:
		return interval{loInf: true, hi: p.Value}
	case expr.LessEqual:
		return interval{loInf: true, hi: p.Value, hiIncl: true}
	case expr.Greater:
		return interval{lo: p.Value, hiInf: true}
	case expr.GreaterEqual:
		return interval{lo: p.Value, loIncl: true, hiInf: true}
	}
	return interval{lo: p.Value, hi: p.Value, loIncl: true, hiIncl: true}
}

// contains reports whether o lies within i.
func (i interval) contains(o interval, cs *Comparers) bool {
	return i.lowerAtOrBelow(o, cs) && i.upperAtOrAbove(o, cs)
}

func (i interval) lowerAtOrBelow(o interval, cs *Comparers) bool {
	if i.loInf {
		return true
	}
	if o.loInf {
		return false
	}
	c, ok := cs.compare(i.lo, o.lo)
	if !ok {
		return false
	}
	return c < 0 || (c == 0 && (i.loIncl || !o.loIncl))
}

func (i interval) upperAtOrAbove(o interval, cs *Comparers) bool {
	if i.hiInf {
		return true
	}
	if o.hiInf {
		return false
	}
	c, ok := cs.compare(i.hi, o.hi)
	if !ok {
		return false
	}
	return c > 0 || (c == 0 && (i.hiIncl || !o.hiIncl))
}

// disjoint reports whether no value lies in both i and o.
func (i interval) disjoint(o interval, cs *Comparers) bool {
	return endsBefore(i, o, cs) || endsBefore(o, i, cs)
}

// endsBefore reports whether a ends before b starts.
func endsBefore(a, b interval, cs *Comparers) bool {
	if a.hiInf || b.loInf {
		return false
	}
	c, ok := cs.compare(a.hi, b.lo)
	if !ok {
		return false
	}
	return c < 0 || (c == 0 && !(a.hiIncl && b.loIncl))
}
