package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approval-gateway/internal/authorization/metrics"
	"approval-gateway/internal/authorization/models"
	"approval-gateway/internal/authorization/store"
)

func seedRequest(t *testing.T, st *store.InMemoryStore, subjectID string, expiresAt time.Time) uuid.UUID {
	t.Helper()
	now := time.Now()
	request := &models.Request{
		AuthReqID:      uuid.New(),
		SubjectID:      subjectID,
		BindingMessage: "AI wants to access your personal information",
		Scope:          models.DefaultScope,
		Status:         models.StatusPending,
		CreatedAt:      now.Add(-10 * time.Minute),
		ExpiresAt:      expiresAt,
		UpdatedAt:      now.Add(-10 * time.Minute),
	}
	require.NoError(t, st.Create(context.Background(), request))
	return request.AuthReqID
}

func TestRunOnceExpiresOverdueRequests(t *testing.T) {
	ctx := context.Background()
	st := store.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	now := time.Now()
	overdueA := seedRequest(t, st, "auth0|alice", now.Add(-time.Minute))
	overdueB := seedRequest(t, st, "auth0|bob", now.Add(-2*time.Minute))
	live := seedRequest(t, st, "auth0|alice", now.Add(5*time.Minute))

	r, err := New(st, logger)
	require.NoError(t, err)

	expired, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	for id, subject := range map[uuid.UUID]string{overdueA: "auth0|alice", overdueB: "auth0|bob"} {
		stored, findErr := st.FindBySubject(ctx, id, subject)
		require.NoError(t, findErr)
		assert.Equal(t, models.StatusExpired, stored.Status)
	}

	stored, err := st.FindBySubject(ctx, live, "auth0|alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status, "live requests are untouched")

	// A second sweep finds nothing.
	expired, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestRunOnceRecordsExpiredMetrics(t *testing.T) {
	ctx := context.Background()
	st := store.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()

	now := time.Now()
	seedRequest(t, st, "auth0|alice", now.Add(-time.Minute))
	seedRequest(t, st, "auth0|bob", now.Add(-2*time.Minute))
	m.IncrementRequestsCreated()
	m.IncrementRequestsCreated()

	r, err := New(st, logger, WithMetrics(m))
	require.NoError(t, err)

	expired, err := r.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, expired)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExpiredDetected.WithLabelValues("reconciler")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PendingRequests), "sweep-detected expiries decrement the pending gauge")

	// An empty sweep records nothing.
	_, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExpiredDetected.WithLabelValues("reconciler")))
}

func TestStartStopsOnContextCancel(t *testing.T) {
	st := store.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := New(st, logger, WithInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop on cancellation")
	}
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil, slog.Default())
	assert.Error(t, err)
}
