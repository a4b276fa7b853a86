// Package kafka provides a thin fire-and-forget producer for the audit
// pipeline. Delivery failures are logged, never surfaced; the core must not
// block on the broker.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes records asynchronously to Kafka.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewProducer connects to the brokers and ensures the given topics exist.
// Topic creation failures are logged and ignored (the topic usually exists
// already, or the broker auto-creates it).
func NewProducer(ctx context.Context, brokers []string, topics []string, logger *slog.Logger) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopics(ctx, 1, 1, nil, topics...); err != nil {
		logger.WarnContext(ctx, "kafka topic bootstrap failed", "error", err)
	}

	return &Producer{client: client, logger: logger}, nil
}

// Produce hands a record to the client and returns immediately. Errors are
// reported through the promise and logged.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte) {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("kafka produce failed", "topic", r.Topic, "error", err)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}
