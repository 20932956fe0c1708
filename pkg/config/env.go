package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout      = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL      = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize      = "MAX_REQUEST_SIZE"
	EnvExternalCallTimeout = "EXTERNAL_CALL_TIMEOUT"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvAdminEmails        = "ADMIN_EMAILS"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvGoogleClientID             = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret         = "GOOGLE_CLIENT_SECRET"
	EnvGoogleCalendarRefreshToken = "GOOGLE_CALENDAR_REFRESH_TOKEN"
	EnvGoogleCalendarID           = "GOOGLE_CALENDAR_ID"
	EnvCalendarTimezone           = "CALENDAR_TIMEZONE"
	EnvDefaultMeetingDurationMin  = "DEFAULT_MEETING_DURATION_MIN"

	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	EnvBookingFeeCents     = "BOOKING_FEE_CENTS"
	EnvBookingCurrency     = "BOOKING_CURRENCY"
	EnvAppURL              = "APP_URL"

	EnvSMTPHost              = "SMTP_HOST"
	EnvSMTPPort              = "SMTP_PORT"
	EnvSMTPUsername          = "SMTP_USERNAME"
	EnvSMTPPassword          = "SMTP_PASSWORD"
	EnvEmailFrom             = "EMAIL_FROM"
	EnvAdminNotificationMail = "ADMIN_NOTIFICATION_EMAIL"

	EnvAnalyticsSalt = "ANALYTICS_SALT"

	EnvKafkaBrokers        = "KAFKA_BROKERS"
	EnvKafkaBookingsTopic  = "KAFKA_BOOKINGS_TOPIC"
	EnvKafkaAnalyticsTopic = "KAFKA_ANALYTICS_TOPIC"

	EnvOTelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvEnvironment  = "ENV"
)
