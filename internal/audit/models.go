package audit

import (
	"time"

	"github.com/google/uuid"
)

// Decision actions. One entry is appended per resolving decision; rejected
// duplicate attempts never produce an entry.
const (
	ActionApproved = "approved"
	ActionDenied   = "denied"
)

// Decision is the append-only record of a resolved authorization request.
// Keep it transport-agnostic so stores and sinks can fan out.
type Decision struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	SubjectID string
	Action    string
	Timestamp time.Time
}
