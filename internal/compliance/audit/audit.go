// Package audit emits one decision event per compliance check to Kafka.
// Publishing is fire-and-forget: the request path never blocks or fails on
// the audit trail.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Producer is the slice of the Kafka client the publisher needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, done func(error))
}

// Event is the decision record written to the audit topic.
type Event struct {
	CorrelationID string    `json:"correlation_id,omitempty"`
	PropertyID    string    `json:"property_id"`
	Jurisdiction  string    `json:"jurisdiction"`
	District      string    `json:"district,omitempty"`
	Status        string    `json:"status"`
	Confidence    int       `json:"confidence"`
	DataSource    string    `json:"data_source"`
	Violations    int       `json:"violations"`
	At            time.Time `json:"at"`
}

// Publisher buffers events and publishes them asynchronously. When the
// buffer is full the event is dropped and counted; audit must never apply
// backpressure to checks.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger

	events  chan Event
	dropped int64
	mu      sync.Mutex
	done    chan struct{}
	closing sync.Once
}

// NewPublisher starts the publish worker. A nil producer yields a nil
// publisher, which is safe to call Emit on.
func NewPublisher(producer Producer, topic string, logger *slog.Logger) *Publisher {
	if producer == nil {
		return nil
	}
	p := &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		events:   make(chan Event, 256),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Emit enqueues an event without blocking.
func (p *Publisher) Emit(event Event) {
	if p == nil {
		return
	}
	select {
	case p.events <- event:
	default:
		p.mu.Lock()
		p.dropped++
		dropped := p.dropped
		p.mu.Unlock()
		if p.logger != nil {
			p.logger.Warn("audit buffer full, event dropped",
				"property_id", event.PropertyID,
				"dropped_total", dropped,
			)
		}
	}
}

// Dropped reports how many events were discarded due to a full buffer.
func (p *Publisher) Dropped() int64 {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close drains the buffer and stops the worker.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.closing.Do(func() {
		close(p.events)
		<-p.done
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.events {
		value, err := json.Marshal(event)
		if err != nil {
			if p.logger != nil {
				p.logger.Error("audit event encode failed", "error", err)
			}
			continue
		}
		p.producer.Produce(context.Background(), p.topic, []byte(event.Jurisdiction), value, func(err error) {
			if err != nil && p.logger != nil {
				p.logger.Warn("audit event publish failed", "error", err)
			}
		})
	}
}
