package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"conveyo/internal/platform/kafka"
)

// KafkaRouter publishes notification requests to the router's topic, keyed by
// reservation so per-reservation ordering survives partitioning.
type KafkaRouter struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaRouter(producer *kafka.Producer, topic string) *KafkaRouter {
	return &KafkaRouter{producer: producer, topic: topic}
}

func (r *KafkaRouter) Publish(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return r.producer.Produce(ctx, r.topic, []byte(n.ReservationID.String()), payload)
}
