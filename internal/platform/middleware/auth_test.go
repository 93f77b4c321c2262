package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	claims *TokenClaims
	err    error
}

func (v *stubVerifier) Verify(string) (*TokenClaims, error) {
	return v.claims, v.err
}

func authTestHandler(t *testing.T, verifier TokenVerifier) (http.Handler, *string) {
	t.Helper()
	var seenSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenSubject = GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return RequireAuth(verifier, logger)(next), &seenSubject
}

func TestRequireAuthMissingHeader(t *testing.T) {
	h, _ := authTestHandler(t, &stubVerifier{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthInvalidToken(t *testing.T) {
	h, _ := authTestHandler(t, &stubVerifier{err: errors.New("bad signature")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthMissingSubject(t *testing.T) {
	h, _ := authTestHandler(t, &stubVerifier{claims: &TokenClaims{}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthPopulatesSubject(t *testing.T) {
	h, seen := authTestHandler(t, &stubVerifier{claims: &TokenClaims{Subject: "auth0|user-1"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth0|user-1", *seen)
}
