package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore keeps conversation history in memory for tests and DB-less
// runs. Messages are held in append order per subject.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]*Message
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{messages: make(map[string][]*Message)}
}

func (s *InMemoryStore) Append(_ context.Context, message *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *message
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	s.messages[stored.SubjectID] = append(s.messages[stored.SubjectID], &stored)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[subjectID]
	out := make([]*Message, 0, len(history))
	for _, m := range history {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) LastUserMessage(_ context.Context, subjectID string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[subjectID]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			copied := *history[i]
			return &copied, nil
		}
	}
	return nil, ErrNoMessages
}
