package config

import (
	"fmt"
	"net/mail"
	"os"
	"portfolio/pkg/client"
	"portfolio/pkg/logger"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Environment string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout      time.Duration
	IdempotencyTTL      time.Duration
	MaxRequestSize      int
	ExternalCallTimeout time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	AdminEmails        []string
	CORSAllowedOrigins []string

	GoogleClientID             string
	GoogleClientSecret         string
	GoogleCalendarRefreshToken string
	GoogleCalendarID           string
	CalendarTimezone           string
	DefaultMeetingDurationMin  int

	StripeSecretKey     string
	StripeWebhookSecret string
	BookingFeeCents     int64
	BookingCurrency     string
	AppURL              string

	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFrom              string
	AdminNotificationEmail string

	AnalyticsSalt string

	KafkaBrokers        []string
	KafkaBookingsTopic  string
	KafkaAnalyticsTopic string

	OTelEndpoint string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	adminEmails := getEnvList(EnvAdminEmails)
	adminNotification := getEnvStr(EnvAdminNotificationMail, "")
	if adminNotification == "" && len(adminEmails) > 0 {
		adminNotification = adminEmails[0]
	}

	cfg := &Config{
		ServiceName: serviceName,
		Environment: getEnvStr(EnvEnvironment, DefaultEnvironment),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:      getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL:      getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize:      getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),
		ExternalCallTimeout: getEnvDuration(EnvExternalCallTimeout, DefaultExternalCallTimeout),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		AdminEmails:        adminEmails,
		CORSAllowedOrigins: getEnvList(EnvCORSAllowedOrigins),

		GoogleClientID:             getEnvStr(EnvGoogleClientID, ""),
		GoogleClientSecret:         getEnvStr(EnvGoogleClientSecret, ""),
		GoogleCalendarRefreshToken: getEnvStr(EnvGoogleCalendarRefreshToken, ""),
		GoogleCalendarID:           getEnvStr(EnvGoogleCalendarID, DefaultGoogleCalendarID),
		CalendarTimezone:           getEnvStr(EnvCalendarTimezone, DefaultCalendarTimezone),
		DefaultMeetingDurationMin:  getEnvNum(EnvDefaultMeetingDurationMin, DefaultDefaultMeetingDurationMin),

		StripeSecretKey:     getEnvStr(EnvStripeSecretKey, ""),
		StripeWebhookSecret: getEnvStr(EnvStripeWebhookSecret, ""),
		BookingFeeCents:     int64(getEnvNum(EnvBookingFeeCents, DefaultBookingFeeCents)),
		BookingCurrency:     strings.ToLower(getEnvStr(EnvBookingCurrency, DefaultBookingCurrency)),
		AppURL:              getEnvStr(EnvAppURL, DefaultAppURL),

		SMTPHost:               getEnvStr(EnvSMTPHost, ""),
		SMTPPort:               getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername:           getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword:           getEnvStr(EnvSMTPPassword, ""),
		EmailFrom:              getEnvStr(EnvEmailFrom, ""),
		AdminNotificationEmail: adminNotification,

		AnalyticsSalt: getEnvStr(EnvAnalyticsSalt, ""),

		KafkaBrokers:        getEnvList(EnvKafkaBrokers),
		KafkaBookingsTopic:  getEnvStr(EnvKafkaBookingsTopic, DefaultKafkaBookingsTopic),
		KafkaAnalyticsTopic: getEnvStr(EnvKafkaAnalyticsTopic, DefaultKafkaAnalyticsTopic),

		OTelEndpoint: getEnvStr(EnvOTelEndpoint, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.SMTPUsername
	}

	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects to Redis when REDIS_ADDR is configured. Without it the
// rate limiter and idempotency store run in memory.
func (cfg *Config) SetRedis() {
	if !cfg.RedisEnabled() {
		cfg.Log.Info("Redis not configured, using in-memory rate limiting and idempotency")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) RedisEnabled() bool { return cfg.RedisAddr != "" }
func (cfg *Config) KafkaEnabled() bool { return len(cfg.KafkaBrokers) > 0 }
func (cfg *Config) PaymentsEnabled() bool { return cfg.StripeSecretKey != "" }
func (cfg *Config) MailEnabled() bool { return cfg.SMTPHost != "" }
func (cfg *Config) TracingEnabled() bool { return cfg.OTelEndpoint != "" }
func (cfg *Config) IdentityEnabled() bool { return cfg.GoogleClientID != "" }
func (cfg *Config) CalendarEnabled() bool {
	return cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" && cfg.GoogleCalendarRefreshToken != ""
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ExternalCallTimeout", cfg.ExternalCallTimeout},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	for _, email := range cfg.AdminEmails {
		if _, err := mail.ParseAddress(email); err != nil {
			errors = append(errors, fmt.Sprintf("AdminEmails contains an invalid address: %s", email))
		}
	}
	if len(cfg.AdminEmails) > 0 && cfg.GoogleClientID == "" {
		errors = append(errors, "GoogleClientID is required when AdminEmails is set")
	}

	if cfg.GoogleCalendarRefreshToken != "" && (cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "") {
		errors = append(errors, "GoogleClientID and GoogleClientSecret are required when GoogleCalendarRefreshToken is set")
	}
	if _, err := time.LoadLocation(cfg.CalendarTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("CalendarTimezone must be a valid IANA zone, got: %s", cfg.CalendarTimezone))
	}
	if cfg.DefaultMeetingDurationMin <= 0 {
		errors = append(errors, fmt.Sprintf("DefaultMeetingDurationMin must be positive, got: %d", cfg.DefaultMeetingDurationMin))
	}

	if cfg.BookingFeeCents < 0 {
		errors = append(errors, fmt.Sprintf("BookingFeeCents cannot be negative, got: %d", cfg.BookingFeeCents))
	}
	if cfg.BookingFeeCents > 0 && cfg.StripeSecretKey == "" {
		errors = append(errors, "StripeSecretKey is required when BookingFeeCents is set")
	}
	if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" {
		errors = append(errors, "StripeWebhookSecret is required when StripeSecretKey is set")
	}
	if !regexp.MustCompile(`^[a-z]{3}$`).MatchString(cfg.BookingCurrency) {
		errors = append(errors, fmt.Sprintf("BookingCurrency must be a 3-letter ISO code, got: %s", cfg.BookingCurrency))
	}

	if cfg.SMTPHost != "" {
		if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
		}
		if _, err := mail.ParseAddress(cfg.EmailFrom); err != nil {
			errors = append(errors, fmt.Sprintf("EmailFrom must be a valid address when SMTPHost is set, got: %q", cfg.EmailFrom))
		}
	}

	for i, broker := range cfg.KafkaBrokers {
		if broker == "" {
			errors = append(errors, fmt.Sprintf("Kafka broker %d cannot be empty", i))
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"environment", cfg.Environment,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_enabled", cfg.RedisEnabled(),
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"external_call_timeout", cfg.ExternalCallTimeout,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"admin_emails_count", len(cfg.AdminEmails),
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
		"identity_enabled", cfg.IdentityEnabled(),
		"calendar_enabled", cfg.CalendarEnabled(),
		"calendar_id", cfg.GoogleCalendarID,
		"calendar_timezone", cfg.CalendarTimezone,
		"payments_enabled", cfg.PaymentsEnabled(),
		"stripe_webhook_secret_set", cfg.StripeWebhookSecret != "",
		"booking_fee_cents", cfg.BookingFeeCents,
		"booking_currency", cfg.BookingCurrency,
		"app_url", cfg.AppURL,
		"mail_enabled", cfg.MailEnabled(),
		"smtp_host", cfg.SMTPHost,
		"analytics_salt_set", cfg.AnalyticsSalt != "",
		"kafka_brokers", cfg.KafkaBrokers,
		"tracing_enabled", cfg.TracingEnabled(),
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
