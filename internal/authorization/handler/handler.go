package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"approval-gateway/internal/authorization/models"
	"approval-gateway/internal/platform/middleware"
	"approval-gateway/internal/profile"
	"approval-gateway/pkg/httputil"
)

// Service defines the authorization operations the handler exposes.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Create(ctx context.Context, subjectID, bindingMessage, scope string) (*models.Request, error)
	ListPending(ctx context.Context, subjectID string) ([]*models.Request, error)
	Resolve(ctx context.Context, subjectID, rawAuthReqID string, action models.Action) error
	PollOutcome(ctx context.Context, subjectID, rawAuthReqID string) (models.Status, error)
}

// ProfileFetcher retrieves the subject's profile from the identity provider
// once a request is approved.
type ProfileFetcher interface {
	Fetch(ctx context.Context, providerDomain, accessToken string) (*profile.Profile, error)
}

// Conversation supplies the question behind an approved request and records
// the derived answer. Satisfied by the chat service.
type Conversation interface {
	LastQuestion(ctx context.Context, subjectID string) (string, error)
	RecordAnswer(ctx context.Context, subjectID, content string) error
}

type Handler struct {
	service      Service
	profiles     ProfileFetcher
	conversation Conversation
	logger       *slog.Logger
}

func New(service Service, profiles ProfileFetcher, conversation Conversation, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		profiles:     profiles,
		conversation: conversation,
		logger:       logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/backchannel/authorize", h.HandleAuthorize)
	r.Get("/backchannel/requests", h.HandleListPending)
	r.Post("/backchannel/resolve", h.HandleResolve)
	r.Post("/backchannel/poll", h.HandlePoll)
}

// HandleAuthorize opens a new authorization request for the caller.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	subjectID := middleware.GetSubject(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	request, err := h.service.Create(ctx, subjectID, req.BindingMessage, req.Scope)
	if err != nil {
		h.logger.ErrorContext(ctx, "create authorization request failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &models.CreateResponse{
		AuthReqID: request.AuthReqID.String(),
	})
}

// HandleListPending returns the caller's live approval queue, newest first.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	subjectID := middleware.GetSubject(ctx)

	requests, err := h.service.ListPending(ctx, subjectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list pending requests failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	out := make([]models.PendingRequest, 0, len(requests))
	for _, request := range requests {
		out = append(out, models.PendingRequest{
			AuthReqID:      request.AuthReqID.String(),
			BindingMessage: request.BindingMessage,
			Scope:          request.Scope,
			CreatedAt:      request.CreatedAt,
			ExpiresAt:      request.ExpiresAt,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, &models.ListResponse{Requests: out, Count: len(out)})
}

// HandleResolve applies the caller's approve or deny decision.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	subjectID := middleware.GetSubject(ctx)

	req, ok := httputil.DecodeAndPrepare[models.ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Resolve(ctx, subjectID, req.AuthReqID, req.Action); err != nil {
		h.logger.ErrorContext(ctx, "resolve authorization request failed",
			"error", err,
			"request_id", requestID,
			"auth_req_id", req.AuthReqID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.ResolveResponse{
		Action:  req.Action,
		Message: fmt.Sprintf("Request %s successfully", req.Action),
	})
}

// HandlePoll reports the current outcome of a request. On the approved path
// it fetches the caller's profile and derives the answer to the question that
// triggered the request.
func (h *Handler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	subjectID := middleware.GetSubject(ctx)

	req, ok := httputil.DecodeAndPrepare[models.PollRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	status, err := h.service.PollOutcome(ctx, subjectID, req.AuthReqID)
	if err != nil {
		h.logger.ErrorContext(ctx, "poll authorization request failed",
			"error", err,
			"request_id", requestID,
			"auth_req_id", req.AuthReqID,
		)
		httputil.WriteError(w, err)
		return
	}

	switch status {
	case models.StatusApproved:
		h.respondApproved(w, r, req, subjectID, requestID)
	case models.StatusExpired:
		httputil.WriteJSON(w, http.StatusOK, &models.PollResponse{
			Status:  status,
			Message: "Authorization request expired",
		})
	default:
		httputil.WriteJSON(w, http.StatusOK, &models.PollResponse{
			Status:  status,
			Message: fmt.Sprintf("Request is %s", status),
		})
	}
}

func (h *Handler) respondApproved(w http.ResponseWriter, r *http.Request, req *models.PollRequest, subjectID, requestID string) {
	ctx := r.Context()

	p, err := h.profiles.Fetch(ctx, req.ProviderDomain, req.AccessToken)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile fetch failed",
			"error", err,
			"request_id", requestID,
			"auth_req_id", req.AuthReqID,
		)
		httputil.WriteError(w, err)
		return
	}

	question, err := h.conversation.LastQuestion(ctx, subjectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "last question lookup failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	answer := profile.ComposeAnswer(question, p)

	// The answer is the poll response either way; history is best-effort.
	if err := h.conversation.RecordAnswer(ctx, subjectID, answer); err != nil {
		h.logger.ErrorContext(ctx, "failed to record derived answer",
			"error", err,
			"request_id", requestID,
		)
	}

	httputil.WriteJSON(w, http.StatusOK, &models.PollResponse{
		Status:   models.StatusApproved,
		Response: answer,
	})
}
