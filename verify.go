package triggertree

import "fmt"

// Violation describes a node that breaks the structure of the tree.
type Violation struct {
	Node   *Node
	Parent *Node

	// Trigger is set when the violation concerns a single trigger.
	Trigger *Trigger

	Reason string
}

func (v *Violation) Error() string {
	if v.Trigger != nil {
		return fmt.Sprintf("%s: trigger %s in node %s", v.Reason, v.Trigger, v.Node.label())
	}
	return fmt.Sprintf("%s: node %s", v.Reason, v.Node.label())
}

// VerifyTree checks that every trigger is Equal to its node, that every child is
// more specific than its parent, that siblings are unrelated and that the
// trigger count is right. It returns the first violation found, or nil.
func (t *Tree) VerifyTree() *Violation {
	cs := &t.opts.comparers
	if v := verifyNode(t.root, nil, cs); v != nil {
		return v
	}
	for _, tr := range t.dead {
		if tr.Satisfiable() {
			return &Violation{Trigger: tr, Node: t.root, Reason: "satisfiable trigger stored as dead"}
		}
	}
	if n := t.root.count() + len(t.dead); n != t.total {
		return &Violation{Node: t.root, Reason: fmt.Sprintf("tree holds %d triggers, expected %d", n, t.total)}
	}
	return nil
}

func verifyNode(n, parent *Node, cs *Comparers) *Violation {
	if parent != nil && len(n.triggers) == 0 {
		return &Violation{Node: n, Parent: parent, Reason: "empty node"}
	}
	for _, tr := range n.triggers {
		if r := relateClauseSets(tr.clauses, n.clauses, cs); r != Equal {
			return &Violation{Node: n, Parent: parent, Trigger: tr, Reason: "trigger is " + r.String() + " to its node"}
		}
	}
	for i, c := range n.children {
		if r := c.Relationship(n, cs); r != Subset {
			return &Violation{Node: c, Parent: n, Reason: "child is " + r.String() + " to its parent"}
		}
		for _, s := range n.children[i+1:] {
			switch r := c.Relationship(s, cs); r {
			case Equal, Subset, Superset:
				return &Violation{Node: c, Parent: n, Reason: "sibling " + s.label() + " is " + r.String()}
			}
		}
		if v := verifyNode(c, n, cs); v != nil {
			return v
		}
	}
	return nil
}
