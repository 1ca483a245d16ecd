// Package triggertree indexes boolean trigger expressions by specificity, and finds the most
// specific triggers matching a frame of data.
//
// The tree does not specify a language for expressions, relying instead on an Evaluator to parse
// them and to evaluate the parts the tree does not understand. Package cel provides an Evaluator
// for CEL.
//
// Typical use is as follows:
//
//  1. Create an evaluator
//  2. Create a tree, registering comparers for domain values
//  3. Add triggers, each with an action
//  4. Match frames against the tree
//  5. Pick among the matching triggers
//
// # Specificity
//
// Every trigger is expanded to disjunctive normal form: a set of clauses, each a conjunction
// of predicates. A trigger is more specific than another when its clauses imply those of the
// other. For example, `exists(blah) && woof == 3` is more specific than `exists(blah)`, which
// is more specific than `true`.
//
// Triggers with Equal clauses share a node. Nodes holding more specific triggers are children of
// the nodes they specialize, and unrelated nodes are siblings:
//
//	true [4]
//	├── exists(blah) [1, 3]
//	│   └── exists(blah) && woof == 3 [2]
//	└── x > 5 [6]
//
// Matching walks the tree from the root, skipping subtrees that cannot match, and returns the
// most specific nodes with matching triggers. If a frame matches more than one unrelated node,
// all of them are returned; choosing between them is up to the caller.
//
// # Optional and Ignored Parts
//
// optional(e) makes a trigger more specific than the same trigger without e, while still
// matching frames where e is false. ignore(e) must hold for the trigger to match, but does not
// make the trigger more specific.
//
// # Quantifiers
//
// A Quantifier expands an expression over a list of frame paths. With All, the expression must
// hold for every path; with Any, for at least one, and each clause records the binding that
// produced it (see Clause.Bindings and Trigger.MatchingClauses).
//
// # Concurrency
//
// A Tree must not be modified while it is being matched. SyncTree wraps a Tree with a lock.
// Comparers must be registered before triggers are added.
package triggertree
