package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidExpression is returned for expressions that cannot be normalized,
	// such as a negated optional.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrExpansionLimit is returned when expanding an expression produces more
	// conjunctions than allowed.
	ErrExpansionLimit = errors.New("expression expansion limit exceeded")
)

// PushNot returns n in negation normal form: Not only survives as the Negated
// flag of a Call, or as a negated Compare operator.
//
//	!(a && b)        => !a || !b
//	!(a || b)        => !a && !b
//	!(x < 1)         => x >= 1
//	!exists(x)       => NotExists(x)
//	!all(x, e)       => any(x, !e)
//	!ignore(e)       => ignore(!e)
func PushNot(n Node) (Node, error) {
	return pushNot(n, false)
}

func pushNot(n Node, negate bool) (Node, error) {
	switch x := n.(type) {
	case And:
		terms, err := pushNotAll(x.Terms, negate)
		if err != nil {
			return nil, err
		}
		if negate {
			return Or{Terms: terms}, nil
		}
		return And{Terms: terms}, nil
	case Or:
		terms, err := pushNotAll(x.Terms, negate)
		if err != nil {
			return nil, err
		}
		if negate {
			return And{Terms: terms}, nil
		}
		return Or{Terms: terms}, nil
	case Not:
		return pushNot(x.Term, !negate)
	case Compare:
		if negate {
			x.Op = x.Op.Negate()
		}
		return x, nil
	case Call:
		if negate {
			x.Negated = !x.Negated
		}
		return x, nil
	case Const:
		if negate {
			return Const{Value: !x.Value}, nil
		}
		return x, nil
	case Optional:
		if negate {
			return nil, fmt.Errorf("%w: cannot negate %s", ErrInvalidExpression, x)
		}
		t, err := pushNot(x.Term, false)
		if err != nil {
			return nil, err
		}
		return Optional{Term: t}, nil
	case Ignore:
		t, err := pushNot(x.Term, negate)
		if err != nil {
			return nil, err
		}
		return Ignore{Term: t}, nil
	case Quantified:
		t, err := pushNot(x.Term, negate)
		if err != nil {
			return nil, err
		}
		q := x.Quantifier
		if negate {
			if q.Type == All {
				q.Type = Any
			} else {
				q.Type = All
			}
		}
		return Quantified{Quantifier: q, Term: t}, nil
	case nil:
		return nil, fmt.Errorf("%w: nil expression", ErrInvalidExpression)
	}
	return nil, fmt.Errorf("%w: unknown node %T", ErrInvalidExpression, n)
}

func pushNotAll(terms []Node, negate bool) ([]Node, error) {
	out := make([]Node, len(terms))
	for i, t := range terms {
		nt, err := pushNot(t, negate)
		if err != nil {
			return nil, err
		}
		out[i] = nt
	}
	return out, nil
}
