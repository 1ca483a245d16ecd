package triggertree

import (
	"sync"

	"github.com/ezachrisen/triggertree/expr"
	"github.com/google/uuid"
)

// SyncTree wraps a Tree for concurrent use. Adding and removing triggers
// takes an exclusive lock; matching shares a read lock.
type SyncTree struct {
	mu   sync.RWMutex
	tree *Tree
}

// NewSync returns an empty tree that is safe for concurrent use.
func NewSync(evaluator Evaluator, opts ...Option) *SyncTree {
	return &SyncTree{tree: New(evaluator, opts...)}
}

func (s *SyncTree) AddTrigger(source string, action any, quantifiers ...expr.Quantifier) (*Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.AddTrigger(source, action, quantifiers...)
}

func (s *SyncTree) AddExpression(e expr.Node, action any, quantifiers ...expr.Quantifier) (*Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.AddExpression(e, action, quantifiers...)
}

func (s *SyncTree) RemoveTrigger(t *Trigger) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.RemoveTrigger(t)
}

func (s *SyncTree) Trigger(id uuid.UUID) (*Trigger, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Trigger(id)
}

func (s *SyncTree) Matches(frame map[string]any) []*Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Matches(frame)
}

func (s *SyncTree) MatchTriggers(frame map[string]any) []*Trigger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.MatchTriggers(frame)
}

func (s *SyncTree) TotalTriggers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.TotalTriggers()
}

func (s *SyncTree) VerifyTree() *Violation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.VerifyTree()
}

func (s *SyncTree) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.String()
}

// Do runs fn with exclusive access to the underlying tree.
func (s *SyncTree) Do(fn func(t *Tree)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.tree)
}
