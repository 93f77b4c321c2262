package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"approval-gateway/internal/authorization/models"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when no request matches (authReqID, subjectID)
// - Return ErrConflict when a conditional transition finds the row no longer pending
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
var (
	ErrNotFound = errors.New("authorization request not found")
	ErrConflict = errors.New("authorization request no longer pending")
)

// Store persists authorization requests. TransitionFromPending is the
// compare-and-set at the heart of the state machine: it must apply only while
// the stored status is still pending, so concurrent resolvers serialize with
// exactly one winner. Rows are never deleted; terminal rows remain for audit
// and idempotent re-polling.
type Store interface {
	Create(ctx context.Context, request *models.Request) error
	FindBySubject(ctx context.Context, authReqID uuid.UUID, subjectID string) (*models.Request, error)
	ListPendingBySubject(ctx context.Context, subjectID string, now time.Time) ([]*models.Request, error)
	TransitionFromPending(ctx context.Context, authReqID uuid.UUID, subjectID string, to models.Status, updatedAt time.Time) error
	ExpirePendingBefore(ctx context.Context, now time.Time) (int, error)
}
