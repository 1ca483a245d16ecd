package expr

// Op is a comparison operator.
type Op int

const (
	Equal Op = iota
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	Exists
	NotExists
)

func (o Op) String() string {
	switch o {
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterEqual:
		return ">="
	case Exists:
		return "exists"
	case NotExists:
		return "!exists"
	}
	return "unknown"
}

// Negate returns the operator that holds exactly when o does not,
// for a variable that is present.
func (o Op) Negate() Op {
	switch o {
	case Equal:
		return NotEqual
	case NotEqual:
		return Equal
	case Less:
		return GreaterEqual
	case LessEqual:
		return Greater
	case Greater:
		return LessEqual
	case GreaterEqual:
		return Less
	case Exists:
		return NotExists
	case NotExists:
		return Exists
	}
	return o
}

// Flip returns the operator to use when the operands are swapped,
// so that 3 < x becomes x > 3.
func (o Op) Flip() Op {
	switch o {
	case Less:
		return Greater
	case LessEqual:
		return GreaterEqual
	case Greater:
		return Less
	case GreaterEqual:
		return LessEqual
	}
	return o
}
