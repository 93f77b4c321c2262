package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"approval-gateway/internal/authorization/models"
)

// InMemoryStore keeps authorization requests in memory for tests and DB-less
// runs. The mutex gives the same one-winner guarantee the PostgreSQL store
// gets from its conditional UPDATE.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*models.Request
}

// New constructs an empty in-memory request store.
func New() *InMemoryStore {
	return &InMemoryStore{requests: make(map[uuid.UUID]*models.Request)}
}

func (s *InMemoryStore) Create(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyReq := *request
	s.requests[request.AuthReqID] = &copyReq
	return nil
}

func (s *InMemoryStore) FindBySubject(_ context.Context, authReqID uuid.UUID, subjectID string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[authReqID]
	if !ok || request.SubjectID != subjectID {
		return nil, ErrNotFound
	}
	copyReq := *request
	return &copyReq, nil
}

func (s *InMemoryStore) ListPendingBySubject(_ context.Context, subjectID string, now time.Time) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*models.Request
	for _, request := range s.requests {
		if request.SubjectID != subjectID || !request.Live(now) {
			continue
		}
		copyReq := *request
		pending = append(pending, &copyReq)
	}

	// Newest first
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *InMemoryStore) TransitionFromPending(_ context.Context, authReqID uuid.UUID, subjectID string, to models.Status, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[authReqID]
	if !ok || request.SubjectID != subjectID {
		return ErrNotFound
	}
	if request.Status != models.StatusPending {
		return ErrConflict
	}
	request.Status = to
	request.UpdatedAt = updatedAt
	return nil
}

func (s *InMemoryStore) ExpirePendingBefore(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, request := range s.requests {
		if request.Status == models.StatusPending && request.Expired(now) {
			request.Status = models.StatusExpired
			request.UpdatedAt = now
			count++
		}
	}
	return count, nil
}
