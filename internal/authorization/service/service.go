package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"approval-gateway/internal/audit"
	"approval-gateway/internal/authorization/metrics"
	"approval-gateway/internal/authorization/models"
	"approval-gateway/internal/platform/tracing"
	dErrors "approval-gateway/pkg/domain-errors"
)

// Store defines the persistence interface for authorization requests.
// Error Contract:
// - FindBySubject returns store.ErrNotFound when no request matches the subject
// - TransitionFromPending returns store.ErrConflict when the row is no longer pending
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Create(ctx context.Context, request *models.Request) error
	FindBySubject(ctx context.Context, authReqID uuid.UUID, subjectID string) (*models.Request, error)
	ListPendingBySubject(ctx context.Context, subjectID string, now time.Time) ([]*models.Request, error)
	TransitionFromPending(ctx context.Context, authReqID uuid.UUID, subjectID string, to models.Status, updatedAt time.Time) error
}

// Notifier receives the side-channel event for a denied resolution. The call
// happens after the transition committed and is best-effort: a failure is
// logged, never propagated.
type Notifier interface {
	NotifyDenied(ctx context.Context, subjectID string, authReqID uuid.UUID) error
}

type Option func(*Service)

// Service owns the authorization request lifecycle: creation, listing,
// resolution, and polling. Expiry is lazy and read-triggered; the conditional
// store transition guarantees exactly one winner per request.
type Service struct {
	store    Store
	auditor  *audit.Publisher
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   tracing.Tracer
	ttl      time.Duration
}

func NewService(store Store, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		auditor: auditor,
		logger:  logger,
		tracer:  tracing.Noop(),
		ttl:     models.DefaultTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.ttl <= 0 {
		svc.ttl = models.DefaultTTL
	}
	return svc
}

// WithTTL configures the time-to-live for new requests.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithNotifier sets the denial notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// SetNotifier attaches the denial notifier after construction. The chat
// surface both feeds this service and consumes its denials, so one of the two
// references is bound late during wiring, before the server starts.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// WithTracer sets the tracer used around resolve and poll operations.
func WithTracer(t tracing.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Create opens a new pending request for the subject. Concurrent pending
// requests per subject are allowed; each sensitive question gets its own
// request with its own TTL.
func (s *Service) Create(ctx context.Context, subjectID, bindingMessage, scope string) (*models.Request, error) {
	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing subject context")
	}

	request, err := models.NewRequest(subjectID, bindingMessage, scope, time.Now(), s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to persist authorization request")
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsCreated()
	}
	s.logger.InfoContext(ctx, "authorization request created",
		"auth_req_id", request.AuthReqID,
		"subject", subjectID,
		"expires_at", request.ExpiresAt,
	)
	return request, nil
}

// ListPending returns the subject's live pending requests, newest first.
// This is a read-only liveness filter: rows past their expiry are excluded
// but not mutated; lazy expiry writes happen only on the resolution path.
func (s *Service) ListPending(ctx context.Context, subjectID string) ([]*models.Request, error) {
	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing subject context")
	}
	pending, err := s.store.ListPendingBySubject(ctx, subjectID, time.Now())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list authorization requests")
	}
	return pending, nil
}

func parseAuthReqID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid authReqId format")
	}
	return id, nil
}
