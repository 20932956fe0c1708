package middleware

import (
	"context"
	"net/http"
	httputil "portfolio/pkg/http"
	"portfolio/pkg/logger"
	"strconv"
	"strings"
	"sync"
	"time"
)

type KeyExtractor func(r *http.Request) string

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Stop()
}

// InMemoryRateLimiter keeps a sliding window of request timestamps per key.
// It is only correct for a single replica; use RedisRateLimiter otherwise.
type InMemoryRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	stopCh   chan struct{}
	once     sync.Once
}

func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	limiter := &InMemoryRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *InMemoryRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *InMemoryRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

func (rl *InMemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[key]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false, nil
	}

	rl.requests[key] = append(valid, now)
	return true, nil
}

// RateLimit rejects requests once the key returned by extractor exceeds the
// limiter budget. Paths under any of skipPrefixes are not limited; payment
// processor callbacks must never be throttled.
func RateLimit(limiter RateLimiter, extractor KeyExtractor, log *logger.Logger, skipPrefixes ...string) func(http.Handler) http.Handler {
	if extractor == nil {
		extractor = ClientIPExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			key := extractor(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warn("Rate limiter unavailable, allowing request",
					"request_id", RequestIDFromContext(r.Context()),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"client", key,
					"path", r.URL.Path,
				)
				rateLimitedTotal.WithLabelValues(r.Method).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(60))
				writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClientIPExtractor(r *http.Request) string {
	return httputil.ClientIP(r)
}
