package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

var (
	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Bookings created by initial status",
	}, []string{"status"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Applied booking status transitions by target status and trigger",
	}, []string{"status", "trigger"})

	BookingConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transition_conflicts_total",
		Help: "Transitions refused because the booking was in the wrong status",
	}, []string{"trigger"})

	ExternalCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "external_call_duration_seconds",
		Help:    "Latency of calls to payment, calendar, identity and mail providers",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"service", "operation", "result"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notification emails by kind and result",
	}, []string{"kind", "result"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook deliveries by event type and outcome",
	}, []string{"type", "outcome"})

	AnalyticsEventsTracked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_events_tracked_total",
		Help: "Analytics events recorded by event type and device",
	}, []string{"event", "device"})
)

// ObserveExternalCall records how long a provider call took and whether it failed.
func ObserveExternalCall(service, operation string, start time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	ExternalCallDuration.WithLabelValues(service, operation, result).Observe(time.Since(start).Seconds())
}

func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
