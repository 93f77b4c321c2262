package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "approval-gateway/pkg/domain-errors"
)

func TestNewRequestDerivesExpiry(t *testing.T) {
	now := time.Now()
	req, err := NewRequest("auth0|user-1", "AI wants profile access", "", now, 0)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, req.AuthReqID)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, DefaultScope, req.Scope)
	assert.Equal(t, now.Add(DefaultTTL), req.ExpiresAt)
}

func TestNewRequestInvariants(t *testing.T) {
	now := time.Now()

	_, err := NewRequest("", "msg", "", now, DefaultTTL)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = NewRequest("auth0|user-1", "", "", now, DefaultTTL)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestExpiredPredicate(t *testing.T) {
	now := time.Now()
	req, err := NewRequest("auth0|user-1", "msg", "", now, time.Minute)
	require.NoError(t, err)

	assert.False(t, req.Expired(now))
	assert.True(t, req.Expired(now.Add(time.Minute)), "boundary counts as expired")
	assert.True(t, req.Expired(now.Add(2*time.Minute)))
}

func TestLive(t *testing.T) {
	now := time.Now()
	req, err := NewRequest("auth0|user-1", "msg", "", now, time.Minute)
	require.NoError(t, err)

	assert.True(t, req.Live(now))

	req.Status = StatusApproved
	assert.False(t, req.Live(now), "terminal status is never live")

	req.Status = StatusPending
	assert.False(t, req.Live(now.Add(time.Hour)), "past expiry is never live")
}

func TestStatusTerminality(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	for _, s := range []Status{StatusApproved, StatusDenied, StatusExpired} {
		assert.True(t, s.IsTerminal(), string(s))
	}
	assert.False(t, Status("cancelled").IsValid())
}

func TestActionStatus(t *testing.T) {
	assert.Equal(t, StatusApproved, ActionApproved.Status())
	assert.Equal(t, StatusDenied, ActionDenied.Status())
	assert.False(t, Action("expired").IsValid())
}

func TestCreateRequestNormalizeTruncates(t *testing.T) {
	long := strings.Repeat("q", BindingMessageLimit+50)
	req := &CreateRequest{BindingMessage: "  " + long + "  "}
	req.Normalize()

	assert.Len(t, []rune(req.BindingMessage), BindingMessageLimit)
	assert.Equal(t, DefaultScope, req.Scope)
	require.NoError(t, req.Validate())
}

func TestResolveRequestValidate(t *testing.T) {
	err := (&ResolveRequest{AuthReqID: "", Action: ActionApproved}).Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = (&ResolveRequest{AuthReqID: uuid.NewString(), Action: "maybe"}).Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	assert.NoError(t, (&ResolveRequest{AuthReqID: uuid.NewString(), Action: ActionDenied}).Validate())
}

func TestPollRequestValidate(t *testing.T) {
	err := (&PollRequest{}).Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	assert.NoError(t, (&PollRequest{AuthReqID: uuid.NewString()}).Validate())
}
