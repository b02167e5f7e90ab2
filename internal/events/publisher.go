package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Journal is the append-only event store.
type Journal interface {
	Append(ctx context.Context, e Event) error
	ListByItem(ctx context.Context, itemID uint64) ([]Event, error)
}

// Sink fans events out to an external system (Kafka in production).
type Sink interface {
	Produce(ctx context.Context, e Event) error
}

// Publisher appends events to the journal and forwards them to an optional
// sink. Emission happens after the operation has committed, so sink failures
// are logged, never surfaced to the caller.
type Publisher struct {
	journal Journal
	sink    Sink
	logger  *slog.Logger
}

type Option func(*Publisher)

// WithSink attaches an external sink.
func WithSink(sink Sink) Option {
	return func(p *Publisher) { p.sink = sink }
}

func NewPublisher(journal Journal, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{journal: journal, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records one event. Assigns id and timestamp when unset.
func (p *Publisher) Emit(ctx context.Context, e Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := p.journal.Append(ctx, e); err != nil {
		p.logger.ErrorContext(ctx, "event journal append failed",
			"type", string(e.Type), "item_id", e.ItemID, "error", err)
	}
	if p.sink == nil {
		return
	}
	if err := p.sink.Produce(ctx, e); err != nil {
		p.logger.ErrorContext(ctx, "event sink produce failed",
			"type", string(e.Type), "item_id", e.ItemID, "error", err)
	}
}

// ListByItem returns the journaled history for one item.
func (p *Publisher) ListByItem(ctx context.Context, itemID uint64) ([]Event, error) {
	return p.journal.ListByItem(ctx, itemID)
}
