// Package publisher fans audit events out to the store and, optionally, to a
// message-broker sink. Emission is synchronous by default; an async buffer
// turns it into a fire-and-forget channel worker for hot paths.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	id "rentrihub/pkg/domain"
	audit "rentrihub/pkg/platform/audit"
)

// Sink receives the serialized form of every event, keyed by organization so
// a partitioned broker keeps per-org ordering.
type Sink interface {
	Publish(ctx context.Context, key, value []byte) error
}

type Publisher struct {
	store  audit.Store
	sink   Sink
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches Emit to buffered asynchronous delivery. When the
// buffer is full events are dropped rather than blocking the caller.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) { p.inbox = make(chan audit.Event, size) }
}

// WithSink mirrors every event to a broker sink after the store append.
func WithSink(sink Sink) Option {
	return func(p *Publisher) { p.sink = sink }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one event. In async mode a full buffer drops the event; audit
// must never stall a compliance submission in flight.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox == nil {
		return p.deliver(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Warn("audit buffer full, dropping event",
			slog.String("action", event.Action))
		return nil
	}
}

func (p *Publisher) List(ctx context.Context, orgID id.OrgID) ([]audit.Event, error) {
	return p.store.ListByOrg(ctx, orgID)
}

// Close drains any buffered events and stops the worker.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.deliver(context.Background(), event); err != nil {
			p.logger.Error("audit delivery failed",
				slog.String("action", event.Action),
				slog.String("error", err.Error()))
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}

	if p.sink != nil {
		value, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal audit event: %w", err)
		}
		key := []byte(uuid.UUID(event.OrgID).String())
		if err := p.sink.Publish(ctx, key, value); err != nil {
			// The store append already succeeded; the broker mirror is
			// best effort.
			p.logger.Error("audit sink publish failed",
				slog.String("action", event.Action),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
