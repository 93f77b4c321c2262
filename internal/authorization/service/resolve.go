package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"approval-gateway/internal/audit"
	"approval-gateway/internal/authorization/models"
	"approval-gateway/internal/authorization/store"
	"approval-gateway/internal/platform/tracing"
	dErrors "approval-gateway/pkg/domain-errors"
)

// Resolve applies a user's approve/deny decision. The transition out of
// pending is conditional on the row still being pending at write time, so two
// concurrent resolvers have exactly one winner; the loser observes the
// winner's terminal status.
func (s *Service) Resolve(ctx context.Context, subjectID, rawAuthReqID string, action models.Action) (err error) {
	ctx, span := s.tracer.Start(ctx, "authorization.resolve",
		tracing.Attribute{Key: "auth_req_id", Value: rawAuthReqID},
		tracing.Attribute{Key: "action", Value: string(action)},
	)
	defer func() { span.End(err) }()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveResolveLatency(time.Since(start).Seconds())
		}
	}()

	if subjectID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "missing subject context")
	}
	if !action.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "action must be approved or denied")
	}
	authReqID, err := parseAuthReqID(rawAuthReqID)
	if err != nil {
		return err
	}

	request, err := s.fetch(ctx, authReqID, subjectID)
	if err != nil {
		return err
	}
	if request.Status.IsTerminal() {
		return alreadyResolved(request.Status)
	}

	now := time.Now()
	if request.Expired(now) {
		if expErr := s.expire(ctx, request, now, "resolve"); expErr != nil {
			return expErr
		}
		return dErrors.New(dErrors.CodeExpired, "authorization request has expired")
	}

	if err := s.store.TransitionFromPending(ctx, authReqID, subjectID, action.Status(), now); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost the race; report the winner's outcome.
			return s.terminalOutcome(ctx, authReqID, subjectID)
		}
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "authorization request not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to resolve authorization request")
	}

	s.recordDecision(ctx, request, action, now)
	if action == models.ActionDenied {
		s.notifyDenied(ctx, subjectID, authReqID)
	}
	return nil
}

// fetch loads the request scoped by subject. A missing row and another
// subject's row are indistinguishable to the caller.
func (s *Service) fetch(ctx context.Context, authReqID uuid.UUID, subjectID string) (*models.Request, error) {
	request, err := s.store.FindBySubject(ctx, authReqID, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "authorization request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read authorization request")
	}
	return request, nil
}

// expire flips a stale pending row to expired. Losing the conditional write
// means some other call resolved or expired the row first; the caller then
// reports that terminal outcome instead.
func (s *Service) expire(ctx context.Context, request *models.Request, now time.Time, detectedBy string) error {
	err := s.store.TransitionFromPending(ctx, request.AuthReqID, request.SubjectID, models.StatusExpired, now)
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.IncrementExpired(detectedBy)
		}
		s.logger.InfoContext(ctx, "authorization request expired",
			"auth_req_id", request.AuthReqID,
			"detected_by", detectedBy,
		)
		return nil
	case errors.Is(err, store.ErrConflict):
		return s.terminalOutcome(ctx, request.AuthReqID, request.SubjectID)
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "authorization request not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to expire authorization request")
	}
}

// terminalOutcome re-reads a request after losing a conditional write and
// maps its terminal status to the error the caller should see: expired reads
// as expired regardless of which call detected it, anything else as
// already-resolved carrying the winner's status.
func (s *Service) terminalOutcome(ctx context.Context, authReqID uuid.UUID, subjectID string) error {
	request, err := s.fetch(ctx, authReqID, subjectID)
	if err != nil {
		return err
	}
	if request.Status == models.StatusExpired {
		return dErrors.New(dErrors.CodeExpired, "authorization request has expired")
	}
	if request.Status.IsTerminal() {
		return alreadyResolved(request.Status)
	}
	// Still pending after a conflict should not happen; surface as transient.
	return dErrors.New(dErrors.CodeUnavailable, "authorization request in transition, retry")
}

func alreadyResolved(current models.Status) error {
	return dErrors.NewWithMeta(
		dErrors.CodeAlreadyResolved,
		fmt.Sprintf("request already %s", current),
		map[string]string{"current_status": string(current)},
	)
}

func (s *Service) recordDecision(ctx context.Context, request *models.Request, action models.Action, now time.Time) {
	if s.metrics != nil {
		s.metrics.IncrementResolutions(string(action))
	}
	s.logger.InfoContext(ctx, "authorization request resolved",
		"auth_req_id", request.AuthReqID,
		"action", action,
	)
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Decision{
		RequestID: request.AuthReqID,
		SubjectID: request.SubjectID,
		Action:    string(action),
		Timestamp: now,
	}); err != nil {
		// The transition already committed; the failed append is an
		// operational concern, not a caller error.
		s.logger.ErrorContext(ctx, "failed to record approval decision",
			"auth_req_id", request.AuthReqID,
			"error", err,
		)
	}
}

func (s *Service) notifyDenied(ctx context.Context, subjectID string, authReqID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyDenied(ctx, subjectID, authReqID); err != nil {
		s.logger.ErrorContext(ctx, "failed to deliver denial notification",
			"auth_req_id", authReqID,
			"error", err,
		)
	}
}
