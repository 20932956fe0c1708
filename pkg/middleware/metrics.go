package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	httpPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "http_panics_total",
		Help: "Total number of recovered handler panics",
	})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	}, []string{"method"})
)

// Metrics records request counts and latency. Routes are labelled by their
// registered pattern so booking ids do not explode label cardinality.
func Metrics(router *httprouter.Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := routePattern(router, r)
			httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(router *httprouter.Router, r *http.Request) string {
	if router == nil {
		return r.URL.Path
	}
	handle, params, _ := router.Lookup(r.Method, r.URL.Path)
	if handle == nil {
		return "unmatched"
	}

	segments := strings.Split(r.URL.Path, "/")
	for _, p := range params {
		for i, segment := range segments {
			if segment != "" && segment == p.Value {
				segments[i] = ":" + p.Key
			}
		}
	}
	return strings.Join(segments, "/")
}
