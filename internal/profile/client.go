package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"approval-gateway/internal/platform/tracing"
	dErrors "approval-gateway/pkg/domain-errors"
)

const defaultTimeout = 10 * time.Second

// Client fetches OIDC userinfo profiles from an identity provider. The
// provider domain comes from the caller on every fetch so one gateway can
// serve tenants on different providers.
type Client struct {
	httpClient *http.Client
	tracer     tracing.Tracer
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient injects a custom HTTP client, useful for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each userinfo call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithClientTracer enables span creation around fetches.
func WithClientTracer(t tracing.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = t
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		tracer:     tracing.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the profile behind an access token from the provider's
// userinfo endpoint.
func (c *Client) Fetch(ctx context.Context, providerDomain, accessToken string) (_ *Profile, err error) {
	ctx, span := c.tracer.Start(ctx, "profile.Fetch")
	defer func() { span.End(err) }()

	providerDomain = strings.TrimSpace(providerDomain)
	if providerDomain == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "providerDomain is required")
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "accessToken is required")
	}

	endpoint := url.URL{Scheme: "https", Host: providerDomain, Path: "/userinfo"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "userinfo request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "provider rejected the access token")
	case resp.StatusCode != http.StatusOK:
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("userinfo returned status %d", resp.StatusCode))
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode userinfo response")
	}
	return &p, nil
}
