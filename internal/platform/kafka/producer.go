// Package kafka wraps the franz-go client behind the small producer surface
// the audit pipeline needs.
package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes records to Kafka. Produce is asynchronous; delivery
// failures surface through the callback, never to the caller.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects to the given comma-separated broker list.
// Returns nil if brokers is empty (Kafka not configured).
func NewProducer(brokers string) (*Producer, error) {
	if brokers == "" {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Producer{client: client}, nil
}

// Produce enqueues a record and invokes done (if non-nil) on completion.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte, done func(error)) {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if done != nil {
			done(err)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}
