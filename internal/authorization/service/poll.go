package service

import (
	"context"
	"time"

	"approval-gateway/internal/authorization/models"
	"approval-gateway/internal/platform/tracing"
	dErrors "approval-gateway/pkg/domain-errors"
)

// PollOutcome returns the current status snapshot of a request. It is
// read-only except for the lazy expiry write: a pending row read past its
// expiry is flipped to expired before the snapshot is returned. Terminal rows
// are returned as-is, so re-polling an approved request keeps returning
// approved.
func (s *Service) PollOutcome(ctx context.Context, subjectID, rawAuthReqID string) (outcome models.Status, err error) {
	ctx, span := s.tracer.Start(ctx, "authorization.poll",
		tracing.Attribute{Key: "auth_req_id", Value: rawAuthReqID},
	)
	defer func() { span.End(err) }()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObservePollLatency(time.Since(start).Seconds())
		}
	}()

	if subjectID == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "missing subject context")
	}
	authReqID, err := parseAuthReqID(rawAuthReqID)
	if err != nil {
		return "", err
	}

	request, err := s.fetch(ctx, authReqID, subjectID)
	if err != nil {
		return "", err
	}
	if request.Status.IsTerminal() {
		return request.Status, nil
	}

	now := time.Now()
	if request.Expired(now) {
		if expErr := s.expire(ctx, request, now, "poll"); expErr != nil {
			// A concurrent terminal transition is still a snapshot: report it.
			if dErrors.HasCode(expErr, dErrors.CodeExpired) {
				return models.StatusExpired, nil
			}
			if dErrors.HasCode(expErr, dErrors.CodeAlreadyResolved) {
				if meta := dErrors.Meta(expErr); meta != nil {
					return models.Status(meta["current_status"]), nil
				}
			}
			return "", expErr
		}
		return models.StatusExpired, nil
	}

	return models.StatusPending, nil
}
