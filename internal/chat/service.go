package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authzmodels "approval-gateway/internal/authorization/models"
	"approval-gateway/internal/platform/tracing"
	dErrors "approval-gateway/pkg/domain-errors"
)

// bindingMessagePreview bounds how much of the triggering question is echoed
// in the authorization prompt shown to the user.
const bindingMessagePreview = 100

const (
	approvalPrompt = "I need your permission to access your personal information to answer that question. " +
		"Please approve the authorization request."
	genericReply = "I can answer general questions without accessing your personal data. " +
		"For questions about your specific information, I'll need your approval first."
	deniedReply = "You denied access to your personal information. " +
		"I can only answer general questions without that access."
)

// Authorizer opens authorization requests for questions that need profile
// access. Satisfied by the authorization service.
type Authorizer interface {
	Create(ctx context.Context, subjectID, bindingMessage, scope string) (*authzmodels.Request, error)
}

// Service drives the conversational surface: it stores history, classifies
// questions, and opens authorization requests for the sensitive ones.
type Service struct {
	store      Store
	authorizer Authorizer
	logger     *slog.Logger
	tracer     tracing.Tracer
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceTracer enables span creation on message handling.
func WithServiceTracer(t tracing.Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = t
	}
}

func NewService(store Store, authorizer Authorizer, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		authorizer: authorizer,
		logger:     logger,
		tracer:     tracing.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage stores the user's message, classifies it, and either answers
// directly or opens an authorization request and parks the conversation until
// the user decides.
func (s *Service) HandleMessage(ctx context.Context, subjectID, message string) (_ *Reply, err error) {
	ctx, span := s.tracer.Start(ctx, "chat.HandleMessage")
	defer func() { span.End(err) }()

	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "subject is required")
	}
	if message == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "message is required")
	}

	// The reply gets a strictly later timestamp so message order survives a
	// created_at sort regardless of store.
	now := time.Now()
	replyAt := now.Add(time.Microsecond)
	if err := s.append(ctx, subjectID, RoleUser, message, false, now); err != nil {
		return nil, err
	}

	if !NeedsApproval(message) {
		if err := s.append(ctx, subjectID, RoleAssistant, genericReply, false, replyAt); err != nil {
			return nil, err
		}
		return &Reply{Response: genericReply}, nil
	}

	request, err := s.authorizer.Create(ctx, subjectID, bindingMessage(message), authzmodels.DefaultScope)
	if err != nil {
		return nil, err
	}

	if err := s.append(ctx, subjectID, RoleAssistant, approvalPrompt, true, replyAt); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "authorization request opened for chat question",
		"subject_id", subjectID,
		"auth_req_id", request.AuthReqID,
	)

	return &Reply{
		Response:         approvalPrompt,
		RequiresApproval: true,
		AuthReqID:        request.AuthReqID.String(),
	}, nil
}

// History returns the subject's conversation, oldest first.
func (s *Service) History(ctx context.Context, subjectID string) ([]*Message, error) {
	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "subject is required")
	}
	messages, err := s.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list messages")
	}
	return messages, nil
}

// LastQuestion returns the most recent question the subject asked, or the
// empty string when there is none. Used to derive the answer once an
// authorization request is approved.
func (s *Service) LastQuestion(ctx context.Context, subjectID string) (string, error) {
	message, err := s.store.LastUserMessage(ctx, subjectID)
	if err == ErrNoMessages {
		return "", nil
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to find last question")
	}
	return message.Content, nil
}

// RecordAnswer appends an assistant answer to the subject's history.
func (s *Service) RecordAnswer(ctx context.Context, subjectID, content string) error {
	return s.append(ctx, subjectID, RoleAssistant, content, false, time.Now())
}

// NotifyDenied surfaces a denial into the conversation so the subject sees
// why their question went unanswered. Implements the authorization service's
// Notifier.
func (s *Service) NotifyDenied(ctx context.Context, subjectID string, authReqID uuid.UUID) error {
	s.logger.InfoContext(ctx, "denial surfaced to conversation",
		"subject_id", subjectID,
		"auth_req_id", authReqID,
	)
	return s.append(ctx, subjectID, RoleAssistant, deniedReply, false, time.Now())
}

func (s *Service) append(ctx context.Context, subjectID string, role Role, content string, requiresApproval bool, at time.Time) error {
	err := s.store.Append(ctx, &Message{
		ID:               uuid.New(),
		SubjectID:        subjectID,
		Role:             role,
		Content:          content,
		RequiresApproval: requiresApproval,
		CreatedAt:        at,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store message")
	}
	return nil
}

// bindingMessage derives the user-facing authorization prompt from the
// triggering question, echoing at most its first hundred runes.
func bindingMessage(question string) string {
	preview := question
	if runes := []rune(preview); len(runes) > bindingMessagePreview {
		preview = string(runes[:bindingMessagePreview])
	}
	return fmt.Sprintf("AI wants to access your personal information to answer: %q...", preview)
}
