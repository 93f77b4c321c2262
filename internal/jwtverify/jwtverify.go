// Package jwtverify validates bearer tokens minted by the identity provider
// edge. The gateway never issues tokens; it only verifies them and extracts
// the subject that owns authorization requests.
package jwtverify

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"approval-gateway/internal/platform/middleware"
)

// Verifier validates HS256-signed bearer tokens against a deployment-scoped
// signing key injected at startup.
type Verifier struct {
	signingKey []byte
	leeway     time.Duration
}

// Option configures the Verifier.
type Option func(*Verifier)

// WithLeeway tolerates clock skew between the issuer and this service.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.leeway = d
		}
	}
}

// New constructs a Verifier. The signing key is required; an empty key is a
// deployment error and every verification will fail closed.
func New(signingKey string, opts ...Option) *Verifier {
	v := &Verifier{
		signingKey: []byte(signingKey),
		leeway:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type tokenClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Verify parses and validates a token, returning the verified claims.
func (v *Verifier) Verify(tokenString string) (*middleware.TokenClaims, error) {
	if len(v.signingKey) == 0 {
		return nil, fmt.Errorf("verifier has no signing key configured")
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithLeeway(v.leeway), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}

	return &middleware.TokenClaims{
		Subject: subject,
		Scope:   claims.Scope,
	}, nil
}
