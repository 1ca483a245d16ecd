package triggertree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Match is a node of the tree with triggers that matched a frame.
type Match struct {
	// The node the triggers belong to
	Node *Node

	// The clauses of the triggers that matched, in trigger order.
	// Their Bindings show which quantifier bindings made the triggers true.
	Clauses []*Clause

	// The matching triggers, in the order they were added
	Triggers []*Trigger
}

// Actions returns the actions of the matching triggers.
func (m *Match) Actions() []any {
	out := make([]any, len(m.Triggers))
	for i, t := range m.Triggers {
		out[i] = t.Action
	}
	return out
}

// String produces a table of the matching triggers and the clauses that matched.
func (m *Match) String() string {
	return MatchTable(m)
}

// MatchTable renders the triggers of one or more matches as a table.
func MatchTable(matches ...*Match) string {
	tw := table.NewWriter()
	tw.SetTitle("\nMATCHES\n")
	tw.AppendHeader(table.Row{"\n#", "\nID", "\nAction", "\nTrigger", "Matching\nClauses"})
	for i, m := range matches {
		for _, t := range m.Triggers {
			var clauses []string
			for _, c := range t.clauses {
				if slices.Contains(m.Clauses, c) {
					clauses = append(clauses, c.String())
				}
			}
			tw.AppendRow(table.Row{
				fmt.Sprintf("%d", i+1),
				t.ID.String(),
				formatAction(t.Action),
				t.String(),
				strings.Join(clauses, "\n"),
			})
		}
		tw.AppendSeparator()
	}
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func formatAction(a any) string {
	switch x := a.(type) {
	case nil:
		return "-"
	case string:
		return x
	}
	return fmt.Sprintf("%v", a)
}
