package kafka_middleware

import (
	"context"
	"time"

	"portfolio/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_messages_published_total",
		Help: "Events published to Kafka by topic, event type and result",
	}, []string{"topic", "event_type", "result"})

	publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kafka_publish_duration_seconds",
		Help:    "Time spent writing events to Kafka",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
)

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		result := "success"
		if err != nil {
			result = "error"
		}
		messagesPublished.WithLabelValues(msg.Topic, msg.GetEventType(), result).Inc()
		publishDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())

		return err
	}
}
