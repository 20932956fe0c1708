package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "portfolio"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB = 0

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout      = 30 * time.Second
	DefaultIdempotencyTTL      = 24 * time.Hour
	DefaultMaxRequestSize      = 1 * 1024 * 1024 // 1MB
	DefaultExternalCallTimeout = 5 * time.Second

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultGoogleCalendarID          = "primary"
	DefaultCalendarTimezone          = "America/Los_Angeles"
	DefaultDefaultMeetingDurationMin = 25

	DefaultBookingFeeCents = 0
	DefaultBookingCurrency = "usd"
	DefaultAppURL          = "http://localhost:5173"

	DefaultSMTPPort = 587

	DefaultKafkaBookingsTopic  = "portfolio.bookings"
	DefaultKafkaAnalyticsTopic = "portfolio.analytics"

	DefaultEnvironment = "dev"
)
