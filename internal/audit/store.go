package audit

import "context"

// Store persists decision records. Append-only; the core never reads its own
// audit trail, ListBySubject exists for external reporting and tests.
type Store interface {
	Append(ctx context.Context, decision Decision) error
	ListBySubject(ctx context.Context, subjectID string) ([]Decision, error)
}
