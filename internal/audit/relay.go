package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// OutboxEntry is one committed audit event awaiting publication.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID uuid.UUID
	EventType   string
	Payload     []byte
}

// OutboxSource reads and acknowledges pending outbox entries. Implemented by
// the postgres audit store; the in-memory store has no outbox and runs
// without a relay.
type OutboxSource interface {
	PendingOutbox(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Producer publishes one record to a topic.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Relay drains the transactional outbox to Kafka. Audit rows commit with the
// aggregate save; the relay publishes them afterwards, so a broker outage
// delays the trail downstream but never loses it.
type Relay struct {
	source   OutboxSource
	producer Producer
	topic    string
	interval time.Duration
	logger   *slog.Logger
}

func NewRelay(source OutboxSource, producer Producer, topic string, interval time.Duration, logger *slog.Logger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{source: source, producer: producer, topic: topic, interval: interval, logger: logger}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.WarnContext(ctx, "audit relay drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	for {
		entries, err := r.source.PendingOutbox(ctx, 100)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		published := make([]uuid.UUID, 0, len(entries))
		for _, entry := range entries {
			if err := r.producer.Produce(ctx, r.topic, entry.AggregateID[:], entry.Payload); err != nil {
				// Ack what got through; the rest stays pending.
				if len(published) > 0 {
					if ackErr := r.source.MarkPublished(ctx, published); ackErr != nil {
						return ackErr
					}
				}
				return err
			}
			published = append(published, entry.ID)
		}
		if err := r.source.MarkPublished(ctx, published); err != nil {
			return err
		}
	}
}
