// Package cel provides an implementation of the triggertree Evaluator interface backed by Google's cel-go.
//
// See https://github.com/google/cel-go and https://opensource.google/projects/cel for more information
// about CEL.
//
// Trigger expressions are CEL expressions (https://github.com/google/cel-spec) returning a boolean,
// extended with three global pseudo functions:
//
//	exists(x)       true when x is present in the frame; has(x.y) is also accepted
//	optional(e)     e need not hold, but a trigger using it is more specific
//	ignore(e)       e must hold, but does not make a trigger more specific
//
// # What the Tree Understands
//
// Comparisons of a variable with a literal are converted to expr.Compare, so the tree can
// relate them to each other:
//
//	age > 18
//	18 < age                   (same as age > 18)
//	user.name == "alice"
//	color in ["red", "blue"]   (color == "red" || color == "blue")
//	user.email != null         (exists(user.email))
//	verified                   (verified == true)
//
// Everything else is an opaque predicate: it is unparsed to source, compiled to a CEL program and
// evaluated when matching. Two opaque predicates are only related when their source is
// identical, unless a triggertree.PredicateComparer is registered for the function they call.
//
//	name.startsWith("a")
//	size(items) > 2
//	a == b
//	near(location, 10.0)       (custom function, see WithBinaryFunction)
//
// # Missing Data
//
// Expressions are parsed but not type checked, since a frame may carry any variables. An opaque
// predicate referring to a variable missing from the frame fails to evaluate, and the tree treats it
// as false.
package cel
