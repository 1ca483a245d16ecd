package triggertree

// Relationship describes how two predicates, clauses or triggers relate
// in logical strength.
type Relationship int

const (
	// Incomparable means neither side implies the other, but both can hold at once.
	Incomparable Relationship = iota
	// Equal means each side implies the other.
	Equal
	// Subset means the left side implies the right side: it is more specific.
	Subset
	// Superset means the right side implies the left side: it is more general.
	Superset
	// Inconsistent means both sides can never hold at the same time.
	Inconsistent
)

func (r Relationship) String() string {
	switch r {
	case Equal:
		return "equal"
	case Subset:
		return "subset"
	case Superset:
		return "superset"
	case Inconsistent:
		return "inconsistent"
	}
	return "incomparable"
}

// Inverse returns the relationship seen from the other side.
func (r Relationship) Inverse() Relationship {
	switch r {
	case Subset:
		return Superset
	case Superset:
		return Subset
	}
	return r
}

// implies reports whether a left side with relationship r implies the right side.
func (r Relationship) implies() bool {
	return r == Equal || r == Subset
}
