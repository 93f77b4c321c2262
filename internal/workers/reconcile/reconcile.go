package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"approval-gateway/internal/authorization/metrics"
)

// Store exposes the bulk expiry sweep.
type Store interface {
	ExpirePendingBefore(ctx context.Context, now time.Time) (int, error)
}

// Reconciler periodically marks overdue pending requests as expired. Reads
// already expire lazily; the sweep keeps requests nobody polls from lingering
// as pending forever.
type Reconciler struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Reconciler.
type Option func(*Reconciler)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(r *Reconciler) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithMetrics enables expiry counters on sweep runs.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// New constructs a Reconciler with the store and options applied.
func New(store Store, logger *slog.Logger, opts ...Option) (*Reconciler, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	r := &Reconciler{
		store:    store,
		interval: time.Minute,
		logger:   logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Start runs the sweep periodically until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and returns how many requests it expired.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	expired, err := r.store.ExpirePendingBefore(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("expire pending requests: %w", err)
	}
	if expired > 0 {
		r.logger.InfoContext(ctx, "expired overdue requests", "count", expired)
		if r.metrics != nil {
			r.metrics.AddExpired("reconciler", expired)
		}
	}
	return expired, nil
}
