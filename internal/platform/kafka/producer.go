// Package kafka wraps the franz-go client behind a small producer used by the
// notification router and the audit outbox relay.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"conveyo/internal/platform/config"
)

// Producer publishes keyed messages to a Kafka topic. Produce is synchronous;
// callers decide whether a publish failure fails their operation.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects to the configured brokers and ensures the topics this
// engine publishes to exist. Returns nil if no brokers are configured.
func NewProducer(ctx context.Context, cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopics(ctx, client, cfg.NotificationTopic, cfg.AuditTopic); err != nil {
		client.Close()
		return nil, err
	}

	return &Producer{client: client}, nil
}

func ensureTopics(ctx context.Context, client *kgo.Client, topics ...string) error {
	adm := kadm.NewClient(client)
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		// Single partition per topic: per-reservation ordering matters more
		// than throughput at this volume.
		_, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
		if err != nil && !isTopicExists(err) {
			return fmt.Errorf("ensure topic %s: %w", topic, err)
		}
	}
	return nil
}

func isTopicExists(err error) bool {
	return errors.Is(err, kerr.TopicAlreadyExists)
}

// Produce publishes one record and waits for the broker acknowledgement.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}
