package config

import (
	"os"
	"time"
)

// Server captures process-level configuration for the approval gateway.
type Server struct {
	Addr              string
	DatabaseURL       string
	JWTSigningKey     string
	RequestTTL        time.Duration
	ReconcileInterval time.Duration
	UserInfoTimeout   time.Duration
}

const (
	defaultRequestTTL        = 5 * time.Minute
	defaultReconcileInterval = time.Minute
	defaultUserInfoTimeout   = 10 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
// The JWT signing key is deployment-scoped and must be injected; there is no
// baked-in shared secret.
func FromEnv() Server {
	cfg := Server{
		Addr:              envOr("APPROVAL_GATEWAY_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSigningKey:     os.Getenv("JWT_SIGNING_KEY"),
		RequestTTL:        defaultRequestTTL,
		ReconcileInterval: defaultReconcileInterval,
		UserInfoTimeout:   defaultUserInfoTimeout,
	}

	if v := os.Getenv("REQUEST_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTTL = d
		}
	}
	if v := os.Getenv("RECONCILE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ReconcileInterval = d
		}
	}
	if v := os.Getenv("USERINFO_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.UserInfoTimeout = d
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
