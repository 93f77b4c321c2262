package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "approval-gateway/pkg/domain-errors"
)

// DefaultTTL bounds the lifetime of a pending authorization request.
const DefaultTTL = 5 * time.Minute

// DefaultScope is the fixed permission set requested for profile access.
const DefaultScope = "openid profile email"

// Status represents the lifecycle state of an authorization request.
// Transitions are monotonic: pending is the only non-terminal state, and a
// terminal status never changes again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether the status can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusDenied || s == StatusExpired
}

// Action is a user's resolution decision.
type Action string

const (
	ActionApproved Action = "approved"
	ActionDenied   Action = "denied"
)

// IsValid checks if the action is one of the supported enum values.
func (a Action) IsValid() bool {
	return a == ActionApproved || a == ActionDenied
}

// Status returns the terminal status an action transitions a request into.
func (a Action) Status() Status {
	return Status(a)
}

// Request is a single backchannel authorization request.
//
// # Scoping Invariant
//
// An AuthReqID is ALWAYS scoped by SubjectID. Every store lookup includes the
// subject so that an ID belonging to another subject is indistinguishable from
// one that never existed; existence must not leak to an unauthorized caller.
type Request struct {
	AuthReqID      uuid.UUID
	SubjectID      string
	BindingMessage string
	Scope          string
	Status         Status
	CreatedAt      time.Time
	ExpiresAt      time.Time
	UpdatedAt      time.Time
}

// NewRequest creates a pending Request with domain invariant checks.
// ExpiresAt is derived from the creation time plus the TTL and never changes.
func NewRequest(subjectID, bindingMessage, scope string, now time.Time, ttl time.Duration) (*Request, error) {
	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject ID required")
	}
	if bindingMessage == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "binding message required")
	}
	if scope == "" {
		scope = DefaultScope
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Request{
		AuthReqID:      uuid.New(),
		SubjectID:      subjectID,
		BindingMessage: bindingMessage,
		Scope:          scope,
		Status:         StatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		UpdatedAt:      now,
	}, nil
}

// Expired is the pure expiry predicate applied at the top of every operation
// that touches a request row. Liveness never depends on a background sweeper.
func (r Request) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Live reports whether the request can still be resolved.
func (r Request) Live(now time.Time) bool {
	return r.Status == StatusPending && !r.Expired(now)
}
