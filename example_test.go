package triggertree_test

import (
	"fmt"

	"github.com/ezachrisen/triggertree"
	"github.com/ezachrisen/triggertree/cel"
	"github.com/ezachrisen/triggertree/expr"
	"github.com/google/cel-go/ext"
)

// Example showing basic use of the trigger tree with the CEL evaluator
func Example() {

	// Step 1: Create a CEL evaluator
	ev, err := cel.NewEvaluator()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer ev.Stop()

	// Step 2: Create a tree and add triggers
	tree := triggertree.New(ev)
	for _, t := range []struct {
		source string
		action string
	}{
		{`exists(user)`, "welcome"},
		{`exists(user) && user.age >= 18`, "adult"},
	} {
		if _, err := tree.AddTrigger(t.source, t.action); err != nil {
			fmt.Println(err)
			return
		}
	}

	// Step 3: Find the most specific triggers for a frame
	data := map[string]any{
		"user": map[string]any{"age": 21},
	}
	for _, t := range tree.MatchTriggers(data) {
		fmt.Println(t.Action)
	}

	fmt.Print(tree)
	// Output:
	// adult
	// true
	// └── exists(user) [welcome]
	//     └── exists(user) && user.age >= 18 [adult]
}

// Example showing which binding of a quantifier made a trigger match
func Example_quantifier() {
	ev, err := cel.NewEvaluator()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer ev.Stop()
	tree := triggertree.New(ev)

	q := expr.Quantifier{Variable: "a", Type: expr.Any, Bindings: []string{"user.home", "user.work"}}
	tr, err := tree.AddTrigger(`a.city == "Oslo"`, "oslo", q)
	if err != nil {
		fmt.Println(err)
		return
	}

	data := map[string]any{
		"user": map[string]any{
			"home": map[string]any{"city": "Bergen"},
			"work": map[string]any{"city": "Oslo"},
		},
	}
	for _, c := range tr.MatchingClauses(data, tree.Comparers()) {
		fmt.Println(c)
	}
	// Output: user.work.city == "Oslo" {a=user.work}
}

// Example showing an opaque predicate using the CEL string extensions
func Example_customFunctions() {
	ev, err := cel.NewEvaluator(cel.WithEnvOptions(ext.Strings()))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer ev.Stop()
	tree := triggertree.New(ev)

	if _, err := tree.AddTrigger(`name.upperAscii() == "BOB"`, "bob"); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(tree.MatchTriggers(map[string]any{"name": "Bob"})[0].Action)
	fmt.Println(len(tree.MatchTriggers(map[string]any{"name": "Alice"})))
	// Output:
	// bob
	// 0
}
