package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps decision records in memory for tests and DB-less runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	decisions map[string][]Decision
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{decisions: make(map[string][]Decision)}
}

func (s *InMemoryStore) Append(_ context.Context, decision Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[decision.SubjectID] = append(s.decisions[decision.SubjectID], decision)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID string) ([]Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Decision{}, s.decisions[subjectID]...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = make(map[string][]Decision)
}
