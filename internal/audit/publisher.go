package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher captures decision records. It is append-only and uses the storage
// layer for persistence so tests can swap sinks easily. A failed append is
// reported, never propagated: the status transition it describes has already
// committed.
type Publisher struct {
	store  Store
	events chan Decision
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Decisions are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Decision, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for decision := range p.events {
		if err := p.store.Append(context.Background(), decision); err != nil {
			if p.logger != nil {
				p.logger.Error("failed to persist approval decision",
					"error", err,
					"request_id", decision.RequestID,
					"action", decision.Action,
				)
			}
		}
	}
}

// Close shuts down the async publisher and waits for pending decisions to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Emit records a decision. In async mode the send is non-blocking; a full
// buffer drops the decision rather than stalling the resolve hot path.
func (p *Publisher) Emit(ctx context.Context, decision Decision) error {
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	if decision.Timestamp.IsZero() {
		decision.Timestamp = time.Now()
	}
	if p.async {
		select {
		case p.events <- decision:
			return nil
		default:
			if p.logger != nil {
				p.logger.Warn("audit buffer full, decision dropped",
					"request_id", decision.RequestID,
					"action", decision.Action,
				)
			}
			return nil
		}
	}
	return p.store.Append(ctx, decision)
}

// List returns the decisions recorded for a subject.
func (p *Publisher) List(ctx context.Context, subjectID string) ([]Decision, error) {
	return p.store.ListBySubject(ctx, subjectID)
}
