package events

import (
	"context"
	"portfolio/pkg/kafka"
	"portfolio/pkg/logger"
	"portfolio/pkg/middleware"
	"time"
)

// Publisher emits domain events. Publishing is best-effort: failures are
// logged and never reach the caller.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, payload any)
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
	timeout  time.Duration
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, source string, timeout time.Duration, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source, timeout: timeout, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key, eventType string, payload any) {
	// Detached so a client disconnect does not drop an already committed event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(p.source).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish domain event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) {}

func (NopPublisher) Close() error { return nil }
