package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approval-gateway/internal/audit"
	"approval-gateway/internal/authorization/models"
	"approval-gateway/internal/authorization/service"
	"approval-gateway/internal/authorization/store"
	"approval-gateway/internal/platform/middleware"
	"approval-gateway/internal/profile"
	dErrors "approval-gateway/pkg/domain-errors"
)

type stubProfiles struct {
	profile *profile.Profile
	err     error
	calls   int
}

func (s *stubProfiles) Fetch(_ context.Context, _, _ string) (*profile.Profile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

type stubConversation struct {
	question string
	recorded []string
}

func (s *stubConversation) LastQuestion(_ context.Context, _ string) (string, error) {
	return s.question, nil
}

func (s *stubConversation) RecordAnswer(_ context.Context, _, content string) error {
	s.recorded = append(s.recorded, content)
	return nil
}

type handlerEnv struct {
	router       chi.Router
	store        *store.InMemoryStore
	profiles     *stubProfiles
	conversation *stubConversation
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New()
	svc := service.NewService(st, audit.NewPublisher(audit.NewInMemoryStore()), logger)
	profiles := &stubProfiles{profile: &profile.Profile{
		Sub:   "auth0|alice",
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	}}
	conversation := &stubConversation{question: "what is my email"}

	router := chi.NewRouter()
	New(svc, profiles, conversation, logger).Register(router)

	return &handlerEnv{router: router, store: st, profiles: profiles, conversation: conversation}
}

func (e *handlerEnv) do(t *testing.T, method, path, subjectID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if subjectID != "" {
		req = req.WithContext(middleware.WithSubject(req.Context(), subjectID))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *handlerEnv) createRequest(t *testing.T, subjectID string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/backchannel/authorize", subjectID,
		`{"bindingMessage":"AI wants to access your personal information"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AuthReqID)
	return resp.AuthReqID
}

func TestAuthorizeEndpoint(t *testing.T) {
	env := newHandlerEnv(t)

	id := env.createRequest(t, "auth0|alice")
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)

	stored, err := env.store.FindBySubject(context.Background(), parsed, "auth0|alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, models.DefaultScope, stored.Scope)
}

func TestAuthorizeEndpointValidation(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/backchannel/authorize", "auth0|alice", `{"bindingMessage":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/backchannel/authorize", "auth0|alice", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/backchannel/authorize", "",
		`{"bindingMessage":"needs a subject"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListPendingEndpoint(t *testing.T) {
	env := newHandlerEnv(t)

	first := env.createRequest(t, "auth0|alice")
	second := env.createRequest(t, "auth0|alice")
	env.createRequest(t, "auth0|bob")

	rec := env.do(t, http.MethodGet, "/backchannel/requests", "auth0|alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	ids := []string{resp.Requests[0].AuthReqID, resp.Requests[1].AuthReqID}
	assert.ElementsMatch(t, []string{first, second}, ids)
}

func TestResolveEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.createRequest(t, "auth0|alice")

	rec := env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"action":"approved"}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ResolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ActionApproved, resp.Action)
	assert.Equal(t, "Request approved successfully", resp.Message)
}

func TestResolveEndpointConflict(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.createRequest(t, "auth0|alice")

	rec := env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"action":"denied"}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"action":"approved"}`, id))
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(dErrors.CodeAlreadyResolved), body["error"])
	assert.Equal(t, "denied", body["current_status"])
}

func TestResolveEndpointErrors(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"action":"approved"}`, uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		`{"authReqId":"","action":"approved"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"action":"maybe"}`, uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPollEndpointPending(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.createRequest(t, "auth0|alice")

	rec := env.do(t, http.MethodPost, "/backchannel/poll", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.PollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusPending, resp.Status)
	assert.Equal(t, "Request is pending", resp.Message)
	assert.Empty(t, resp.Response)
	assert.Zero(t, env.profiles.calls, "no profile access before approval")
}

func TestPollEndpointApproved(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.createRequest(t, "auth0|alice")

	rec := env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"action":"approved"}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/backchannel/poll", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"accessToken":"token-123","providerDomain":"tenant.auth.example.com"}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.PollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusApproved, resp.Status)
	assert.Equal(t, "Your email address is ada@example.com.", resp.Response)

	require.Len(t, env.conversation.recorded, 1)
	assert.Equal(t, resp.Response, env.conversation.recorded[0])
}

func TestPollEndpointApprovedProfileFailure(t *testing.T) {
	env := newHandlerEnv(t)
	env.profiles.err = dErrors.New(dErrors.CodeUnauthorized, "provider rejected the access token")

	id := env.createRequest(t, "auth0|alice")
	rec := env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"action":"approved"}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/backchannel/poll", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"accessToken":"stale","providerDomain":"tenant.auth.example.com"}`, id))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.conversation.recorded)
}

func TestPollEndpointDenied(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.createRequest(t, "auth0|alice")

	rec := env.do(t, http.MethodPost, "/backchannel/resolve", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q,"action":"denied"}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/backchannel/poll", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.PollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusDenied, resp.Status)
	assert.Equal(t, "Request is denied", resp.Message)
	assert.Zero(t, env.profiles.calls, "denial never touches the provider")
}

func TestPollEndpointExpired(t *testing.T) {
	env := newHandlerEnv(t)

	now := time.Now()
	request := &models.Request{
		AuthReqID:      uuid.New(),
		SubjectID:      "auth0|alice",
		BindingMessage: "m",
		Scope:          models.DefaultScope,
		Status:         models.StatusPending,
		CreatedAt:      now.Add(-10 * time.Minute),
		ExpiresAt:      now.Add(-5 * time.Minute),
		UpdatedAt:      now.Add(-10 * time.Minute),
	}
	require.NoError(t, env.store.Create(context.Background(), request))

	rec := env.do(t, http.MethodPost, "/backchannel/poll", "auth0|alice",
		fmt.Sprintf(`{"authReqId":%q}`, request.AuthReqID))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.PollResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusExpired, resp.Status)
	assert.Equal(t, "Authorization request expired", resp.Message)
}

func TestPollEndpointForeignSubject(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.createRequest(t, "auth0|alice")

	rec := env.do(t, http.MethodPost, "/backchannel/poll", "auth0|bob",
		fmt.Sprintf(`{"authReqId":%q}`, id))
	assert.Equal(t, http.StatusNotFound, rec.Code, "requests are invisible across subjects")
}
