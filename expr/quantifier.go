package expr

import (
	"fmt"
	"maps"
	"strings"
)

// QuantifierType determines how the expansions of a quantifier are combined.
type QuantifierType int

const (
	// All requires the expression to hold for every binding.
	All QuantifierType = iota
	// Any requires the expression to hold for at least one binding.
	Any
)

func (q QuantifierType) String() string {
	if q == Any {
		return "any"
	}
	return "all"
}

func (q QuantifierType) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText accepts "all" and "any".
func (q *QuantifierType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "all":
		*q = All
	case "any":
		*q = Any
	default:
		return fmt.Errorf("%w: unknown quantifier type %q", ErrInvalidExpression, b)
	}
	return nil
}

// Quantifier binds Variable to each of Bindings in turn. A binding is a frame
// path, so with Variable "x" and Bindings ["user.home", "user.work"], the
// expression `exists(x.zip)` expands to `exists(user.home.zip)` and
// `exists(user.work.zip)`.
type Quantifier struct {
	Variable string         `yaml:"variable" json:"variable"`
	Type     QuantifierType `yaml:"type" json:"type"`
	Bindings []string       `yaml:"bindings" json:"bindings"`
}

// Substitute returns a copy of n with every reference to variable replaced by
// binding. A nested quantifier over the same variable shadows it.
func Substitute(n Node, variable, binding string) Node {
	switch x := n.(type) {
	case And:
		return And{Terms: substituteAll(x.Terms, variable, binding)}
	case Or:
		return Or{Terms: substituteAll(x.Terms, variable, binding)}
	case Not:
		return Not{Term: Substitute(x.Term, variable, binding)}
	case Optional:
		return Optional{Term: Substitute(x.Term, variable, binding)}
	case Ignore:
		return Ignore{Term: Substitute(x.Term, variable, binding)}
	case Quantified:
		q := x.Quantifier
		q.Bindings = make([]string, len(x.Quantifier.Bindings))
		for i, b := range x.Quantifier.Bindings {
			q.Bindings[i] = rebase(b, variable, binding)
		}
		if q.Variable == variable {
			return Quantified{Quantifier: q, Term: x.Term}
		}
		return Quantified{Quantifier: q, Term: Substitute(x.Term, variable, binding)}
	case Compare:
		x.Path = rebase(x.Path, variable, binding)
		return x
	case Call:
		for _, v := range x.Vars {
			if v != variable {
				continue
			}
			b := maps.Clone(x.Bindings)
			if b == nil {
				b = map[string]string{}
			}
			if _, bound := b[variable]; !bound {
				b[variable] = binding
			}
			x.Bindings = b
			break
		}
		// A binding may itself mention the variable being substituted.
		for k, v := range x.Bindings {
			if r := rebase(v, variable, binding); r != v {
				b := maps.Clone(x.Bindings)
				b[k] = r
				x.Bindings = b
			}
		}
		return x
	}
	return n
}

func substituteAll(terms []Node, variable, binding string) []Node {
	out := make([]Node, len(terms))
	for i, t := range terms {
		out[i] = Substitute(t, variable, binding)
	}
	return out
}

// rebase replaces variable at the start of path with binding.
func rebase(path, variable, binding string) string {
	if path == variable {
		return binding
	}
	if strings.HasPrefix(path, variable+".") {
		return binding + path[len(variable):]
	}
	return path
}
