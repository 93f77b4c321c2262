package chat

import (
	"context"
	"errors"
)

// ErrNoMessages indicates a subject has no conversation history yet.
var ErrNoMessages = errors.New("no messages")

// Store persists conversation history.
type Store interface {
	// Append adds a message to the subject's history.
	Append(ctx context.Context, message *Message) error

	// ListBySubject returns a subject's messages, oldest first.
	ListBySubject(ctx context.Context, subjectID string) ([]*Message, error)

	// LastUserMessage returns the subject's most recent user-role message.
	// Returns ErrNoMessages when the subject has not asked anything.
	LastUserMessage(ctx context.Context, subjectID string) (*Message, error)
}
