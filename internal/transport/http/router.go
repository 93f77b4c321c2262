package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authzhandler "approval-gateway/internal/authorization/handler"
	"approval-gateway/internal/chat"
	"approval-gateway/internal/platform/middleware"
	"approval-gateway/pkg/httputil"
)

// Deps carries everything the router needs. The transport layer stays thin:
// handlers delegate to domain services and no business logic lives here.
type Deps struct {
	Logger        *slog.Logger
	TokenVerifier middleware.TokenVerifier
	Authorization *authzhandler.Handler
	Chat          *chat.Handler
}

// NewRouter wires all endpoints with the middleware stack. Everything except
// health and metrics requires a verified bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.TokenVerifier, deps.Logger))
		deps.Authorization.Register(r)
		deps.Chat.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
