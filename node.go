package triggertree

import (
	"slices"
	"strings"
)

// A Node holds triggers whose clauses are Equal to each other. Its children
// are strictly more specific, and its siblings are neither more nor less
// specific.
type Node struct {
	// clauses are those of the first trigger placed in the node.
	clauses  []*Clause
	triggers []*Trigger
	children []*Node
}

func newNode(t *Trigger) *Node {
	return &Node{
		clauses:  t.clauses,
		triggers: []*Trigger{t},
	}
}

// Clauses returns the clauses that represent the node.
func (n *Node) Clauses() []*Clause {
	return n.clauses
}

// Triggers returns the triggers in the node, in the order they were added.
func (n *Node) Triggers() []*Trigger {
	return n.triggers
}

// Children returns the more specific nodes below n.
func (n *Node) Children() []*Node {
	return n.children
}

// Relationship relates the clauses of n to those of other, in the same way
// as Trigger.Relationship.
func (n *Node) Relationship(other *Node, cs *Comparers) Relationship {
	return relateClauseSets(n.clauses, other.clauses, cs)
}

// add places m somewhere below n. The first child Equal to m takes m's
// triggers and children, and the first child more general than m receives it.
// Otherwise m becomes a child of n, taking over the children that are more
// specific than it.
func (n *Node) add(m *Node, cs *Comparers) {
	rels := make([]Relationship, len(n.children))
	for i, c := range n.children {
		rels[i] = m.Relationship(c, cs)
		switch rels[i] {
		case Equal:
			c.merge(m, cs)
			return
		case Subset:
			c.add(m, cs)
			return
		}
	}
	kept := make([]*Node, 0, len(n.children)+1)
	for i, c := range n.children {
		if rels[i] == Superset {
			m.add(c, cs)
			continue
		}
		kept = append(kept, c)
	}
	n.children = append(kept, m)
}

// merge moves the triggers and children of m, which is Equal to n, into n.
func (n *Node) merge(m *Node, cs *Comparers) {
	n.triggers = append(n.triggers, m.triggers...)
	for _, c := range m.children {
		n.add(c, cs)
	}
}

// find returns the node holding a trigger equal to t that satisfies match,
// following only the children t could have been placed in.
func (n *Node) find(t *Trigger, cs *Comparers, match func(*Trigger) bool) (*Node, *Trigger) {
	for _, c := range n.children {
		switch relateClauseSets(t.clauses, c.clauses, cs) {
		case Equal:
			if i := slices.IndexFunc(c.triggers, match); i >= 0 {
				return c, c.triggers[i]
			}
		case Subset:
		default:
			continue
		}
		if owner, found := c.find(t, cs, match); owner != nil {
			return owner, found
		}
	}
	return nil, nil
}

// remove takes t out of the subtree below n. A node left without triggers is
// dissolved, and its children are placed again under its parent.
func (n *Node) remove(t *Trigger, cs *Comparers, guided bool) bool {
	for i, c := range n.children {
		if guided {
			if r := relateClauseSets(t.clauses, c.clauses, cs); r != Equal && r != Subset {
				continue
			}
		}
		if j := slices.Index(c.triggers, t); j >= 0 {
			c.triggers = slices.Delete(c.triggers, j, j+1)
			if len(c.triggers) == 0 {
				n.dissolve(i, cs)
			}
			return true
		}
		if c.remove(t, cs, guided) {
			return true
		}
	}
	return false
}

// dissolve drops the i'th child of n and adds its children to n.
func (n *Node) dissolve(i int, cs *Comparers) {
	c := n.children[i]
	n.children = slices.Delete(slices.Clone(n.children), i, i+1)
	for _, gc := range c.children {
		n.add(gc, cs)
	}
}

// matches returns the most specific nodes below and including n that have
// triggers matching the frame. n itself is assumed to match.
func (n *Node) matches(frame map[string]any, cs *Comparers) []*Match {
	var out []*Match
	for _, c := range n.children {
		if c.mayMatch(frame, cs) {
			out = append(out, c.matches(frame, cs)...)
		}
	}
	if len(out) > 0 {
		return out
	}
	if m := n.match(frame, cs); m != nil {
		return []*Match{m}
	}
	return nil
}

// mayMatch reports whether the predicates of any representative clause hold.
// If none does, no trigger in the subtree can match.
func (n *Node) mayMatch(frame map[string]any, cs *Comparers) bool {
	for _, c := range n.clauses {
		if c.matchesPredicates(frame, cs) {
			return true
		}
	}
	return false
}

// match returns the node's triggers that match the frame, or nil.
func (n *Node) match(frame map[string]any, cs *Comparers) *Match {
	var m *Match
	for _, t := range n.triggers {
		clauses := t.MatchingClauses(frame, cs)
		if len(clauses) == 0 {
			continue
		}
		if m == nil {
			m = &Match{Node: n}
		}
		m.Triggers = append(m.Triggers, t)
		for _, c := range clauses {
			if !slices.Contains(m.Clauses, c) {
				m.Clauses = append(m.Clauses, c)
			}
		}
	}
	return m
}

// count returns the number of triggers in the subtree.
func (n *Node) count() int {
	c := len(n.triggers)
	for _, ch := range n.children {
		c += ch.count()
	}
	return c
}

// walk calls fn for n and every node below it, depth first.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}

func (n *Node) label() string {
	var sb strings.Builder
	for i, c := range n.clauses {
		if i > 0 {
			sb.WriteString(" || ")
		}
		if len(n.clauses) > 1 {
			sb.WriteString("(" + c.String() + ")")
		} else {
			sb.WriteString(c.String())
		}
	}
	if len(n.triggers) > 0 {
		sb.WriteString(" [")
		for i, t := range n.triggers {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatAction(t.Action))
		}
		sb.WriteString("]")
	}
	return sb.String()
}

// String returns the subtree below n, drawn with box-drawing characters.
//
//	true [4]
//	└── exists(blah) [1, 3]
//	    └── exists(blah) && woof == 3 [2]
func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.label())
	sb.WriteString("\n")
	n.buildTree(&sb, "")
	return sb.String()
}

func (n *Node) buildTree(sb *strings.Builder, prefix string) {
	for i, child := range n.children {
		connector, childPrefix := "├── ", "│   "
		if i == len(n.children)-1 {
			connector, childPrefix = "└── ", "    "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(child.label())
		sb.WriteString("\n")
		child.buildTree(sb, prefix+childPrefix)
	}
}
