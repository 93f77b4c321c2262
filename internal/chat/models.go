package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the conversation produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a subject's conversation history.
type Message struct {
	ID               uuid.UUID
	SubjectID        string
	Role             Role
	Content          string
	RequiresApproval bool
	CreatedAt        time.Time
}

// Reply is what the chat surface returns for a handled message. AuthReqID is
// only set when the question triggered an authorization request.
type Reply struct {
	Response         string
	RequiresApproval bool
	AuthReqID        string
}
