package chat

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"approval-gateway/internal/platform/middleware"
	dErrors "approval-gateway/pkg/domain-errors"
	"approval-gateway/pkg/httputil"
)

// ChatRequest is the wire form of a user message.
type ChatRequest struct {
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace.
func (r *ChatRequest) Normalize() {
	if r != nil {
		r.Message = strings.TrimSpace(r.Message)
	}
}

// Validate checks that the request is well-formed.
func (r *ChatRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Message == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "message is required")
	}
	return nil
}

// ChatResponse is the assistant's reply. AuthReqID is only present when the
// message triggered an authorization request.
type ChatResponse struct {
	Response         string `json:"response"`
	RequiresApproval bool   `json:"requiresApproval"`
	AuthReqID        string `json:"authReqId,omitempty"`
}

// MessageResponse is one history entry on the wire.
type MessageResponse struct {
	ID               string    `json:"id"`
	Role             Role      `json:"role"`
	Content          string    `json:"content"`
	RequiresApproval bool      `json:"requiresApproval"`
	CreatedAt        time.Time `json:"createdAt"`
}

// HistoryResponse wraps a subject's conversation, oldest first.
type HistoryResponse struct {
	Messages []MessageResponse `json:"messages"`
	Count    int               `json:"count"`
}

// Handler exposes the conversational surface over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/chat", h.HandleMessage)
	r.Get("/chat/messages", h.HandleHistory)
}

// HandleMessage accepts a user message and returns the assistant's reply.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	subjectID := middleware.GetSubject(ctx)

	req, ok := httputil.DecodeAndPrepare[ChatRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reply, err := h.service.HandleMessage(ctx, subjectID, req.Message)
	if err != nil {
		h.logger.ErrorContext(ctx, "handle chat message failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &ChatResponse{
		Response:         reply.Response,
		RequiresApproval: reply.RequiresApproval,
		AuthReqID:        reply.AuthReqID,
	})
}

// HandleHistory returns the subject's conversation history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	subjectID := middleware.GetSubject(ctx)

	messages, err := h.service.History(ctx, subjectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list chat history failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageResponse{
			ID:               m.ID.String(),
			Role:             m.Role,
			Content:          m.Content,
			RequiresApproval: m.RequiresApproval,
			CreatedAt:        m.CreatedAt,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, &HistoryResponse{Messages: out, Count: len(out)})
}
