package audit

import (
	"context"
	"encoding/json"
)

// DefaultTopicPrefix is used when no prefix is supplied.
const DefaultTopicPrefix = "graminsetu.audit"

// Topics returns the topic names for all categories, for bootstrap.
func Topics(prefix string) []string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return []string{
		topicFor(prefix, CategoryCompliance),
		topicFor(prefix, CategorySecurity),
		topicFor(prefix, CategoryOperations),
	}
}

func topicFor(prefix string, c Category) string {
	return prefix + "." + string(c)
}

// RecordProducer is the slice of the Kafka producer the publisher needs.
type RecordProducer interface {
	Produce(ctx context.Context, topic string, key, value []byte)
}

// KafkaPublisher routes events to a topic per category. Marshal failures
// drop the event; the log sink in Emitter already captured it.
type KafkaPublisher struct {
	producer RecordProducer
	prefix   string
}

// NewKafkaPublisher builds a publisher over the given producer.
func NewKafkaPublisher(producer RecordProducer, prefix string) *KafkaPublisher {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &KafkaPublisher{producer: producer, prefix: prefix}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		return
	}
	p.producer.Produce(ctx, topicFor(p.prefix, event.Category), []byte(event.Action), value)
}
