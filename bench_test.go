package triggertree_test

import (
	"fmt"
	"testing"

	"github.com/ezachrisen/triggertree"
	"github.com/ezachrisen/triggertree/cel"
)

// source returns the i'th benchmark trigger. Triggers are spread over 100
// regions, with up to three levels of specialization.
func source(i int) string {
	switch i % 3 {
	case 0:
		return fmt.Sprintf("region == %d", i%100)
	case 1:
		return fmt.Sprintf("region == %d && tier > %d", i%100, i%7)
	}
	return fmt.Sprintf(`region == %d && tier > %d && name.startsWith("%c")`, i%100, i%7, 'a'+rune(i%26))
}

func newEvaluatorB(b *testing.B) *cel.Evaluator {
	b.Helper()
	ev, err := cel.NewEvaluator()
	if err != nil {
		b.Fatalf("unexpected error: %v", err)
	}
	b.Cleanup(ev.Stop)
	return ev
}

func buildTree(b *testing.B, n int) *triggertree.Tree {
	b.Helper()
	tree := triggertree.New(newEvaluatorB(b))
	for i := range n {
		if _, err := tree.AddTrigger(source(i), i); err != nil {
			b.Fatalf("adding %q: %v", source(i), err)
		}
	}
	return tree
}

func BenchmarkAddTrigger(b *testing.B) {
	for _, n := range []int{100, 1_000} {
		b.Run(fmt.Sprintf("size_%d", n), func(b *testing.B) {
			for b.Loop() {
				buildTree(b, n)
			}
		})
	}
}

func BenchmarkMatches(b *testing.B) {
	tree := buildTree(b, 5_000)
	data := map[string]any{"region": 42, "tier": 5, "name": "quincy"}

	for b.Loop() {
		if len(tree.Matches(data)) == 0 {
			b.Fatal("expected matches")
		}
	}
}

func BenchmarkMatchesParallel(b *testing.B) {
	s := triggertree.NewSync(newEvaluatorB(b))
	for i := range 5_000 {
		if _, err := s.AddTrigger(source(i), i); err != nil {
			b.Fatalf("adding %q: %v", source(i), err)
		}
	}
	data := map[string]any{"region": 42, "tier": 5, "name": "quincy"}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.Matches(data)
		}
	})
}
