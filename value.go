package triggertree

import (
	"cmp"
	"reflect"
	"strings"
	"time"
)

// Comparer orders the values of a domain type that the tree does not know how
// to compare, for example geographic points or versions. Compare returns a
// negative number when a < b, zero when they are equal and a positive number
// when a > b. ok is false when the two values are not ordered, in which case only
// equality (via reflect.DeepEqual) is used.
type Comparer interface {
	Compare(a, b any) (c int, ok bool)
}

// ComparerFunc adapts a function to the Comparer interface.
type ComparerFunc func(a, b any) (int, bool)

func (f ComparerFunc) Compare(a, b any) (int, bool) { return f(a, b) }

// Tagged is implemented by domain values that name their own type tag.
// Otherwise the tag is the Go type name, e.g. "geo.Point".
type Tagged interface {
	TypeTag() string
}

// TypeTag returns the tag used to look up the Comparer for v.
func TypeTag(v any) string {
	if t, ok := v.(Tagged); ok {
		return t.TypeTag()
	}
	if v == nil {
		return "null"
	}
	return reflect.TypeOf(v).String()
}

// PredicateComparer relates two opaque predicates calling the same function,
// for example two geographic "near" predicates with different radii.
type PredicateComparer interface {
	Relationship(a, b *Predicate) Relationship
}

// PredicateComparerFunc adapts a function to the PredicateComparer interface.
type PredicateComparerFunc func(a, b *Predicate) Relationship

func (f PredicateComparerFunc) Relationship(a, b *Predicate) Relationship { return f(a, b) }

// Comparers holds the domain knowledge used to relate and evaluate predicates.
// It must be fully configured before triggers are added: changing it afterwards
// leaves existing clause relationships undefined.
type Comparers struct {
	// Values maps type tags to value comparers.
	Values map[string]Comparer

	// Predicates maps function names to predicate comparers.
	Predicates map[string]PredicateComparer
}

// compare orders a and b. Numbers of any Go numeric type compare with each
// other, as do strings and times. Other values use the Comparer registered
// for their type tag.
func (cs *Comparers) compare(a, b any) (int, bool) {
	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			return compareNumbers(x, y), true
		}
		return 0, false
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
		return 0, false
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
		return 0, false
	case bool:
		return 0, false
	}
	tag := TypeTag(a)
	if tag != TypeTag(b) {
		return 0, false
	}
	if cs == nil {
		return 0, false
	}
	if c, ok := cs.Values[tag]; ok {
		return c.Compare(a, b)
	}
	return 0, false
}

// equal reports whether a and b are the same value.
func (cs *Comparers) equal(a, b any) bool {
	if c, ok := cs.compare(a, b); ok {
		return c == 0
	}
	if _, ok := toNumber(a); ok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// number is a numeric value of any Go numeric type. Integers keep their
// exact value; f is only set for floats.
type number struct {
	kind byte // 'i', 'u' or 'f'
	i    int64
	u    uint64
	f    float64
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int:
		return number{kind: 'i', i: int64(x)}, true
	case int8:
		return number{kind: 'i', i: int64(x)}, true
	case int16:
		return number{kind: 'i', i: int64(x)}, true
	case int32:
		return number{kind: 'i', i: int64(x)}, true
	case int64:
		return number{kind: 'i', i: x}, true
	case uint:
		return number{kind: 'u', u: uint64(x)}, true
	case uint8:
		return number{kind: 'u', u: uint64(x)}, true
	case uint16:
		return number{kind: 'u', u: uint64(x)}, true
	case uint32:
		return number{kind: 'u', u: uint64(x)}, true
	case uint64:
		return number{kind: 'u', u: x}, true
	case float32:
		return number{kind: 'f', f: float64(x)}, true
	case float64:
		return number{kind: 'f', f: x}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	switch n.kind {
	case 'i':
		return float64(n.i)
	case 'u':
		return float64(n.u)
	}
	return n.f
}

// compareNumbers orders two numbers. Integers compare exactly, whatever their
// sign or width; a float on either side makes it a float comparison.
func compareNumbers(a, b number) int {
	if a.kind == 'f' || b.kind == 'f' {
		return cmp.Compare(a.float(), b.float())
	}
	switch {
	case a.kind == 'i' && b.kind == 'i':
		return cmp.Compare(a.i, b.i)
	case a.kind == 'i':
		if a.i < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.i), b.u)
	case b.kind == 'i':
		if b.i < 0 {
			return 1
		}
		return cmp.Compare(a.u, uint64(b.i))
	}
	return cmp.Compare(a.u, b.u)
}

// Lookup finds the value at path in frame. A key equal to the whole path wins;
// otherwise the path is split on "." and followed through nested maps.
// A nil value is reported as absent.
func Lookup(frame map[string]any, path string) (any, bool) {
	if v, ok := frame[path]; ok {
		return v, v != nil
	}
	var cur any = frame
	for part := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}
