package main

import (
	"context"
	"portfolio/internal/auth"
	"portfolio/internal/bookings/handler"
	"portfolio/internal/bookings/repository"
	"portfolio/internal/bookings/service"
	"portfolio/internal/bookings/validator"
	"portfolio/internal/calendar"
	"portfolio/internal/events"
	"portfolio/internal/notifications"
	"portfolio/internal/payments"
	"portfolio/pkg/app"
	"portfolio/pkg/config"
	"portfolio/pkg/kafka"
	kafka_config "portfolio/pkg/kafka/config"
	kafka_middleware "portfolio/pkg/kafka/middleware"
	"portfolio/pkg/obs"
)

const ServiceName = "bookings"

func main() {
	ctx := context.Background()
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Bookings service")
	cfg.SetMongo()
	cfg.SetRedis()

	serverApp := app.NewApplication()

	shutdownTracer, err := obs.InitTracer(ctx, ServiceName, cfg.OTelEndpoint, cfg.Environment, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize tracing", "error", err)
	}
	serverApp.OnShutdown(shutdownTracer)

	publisher := initPublisher(cfg, cfg.KafkaBookingsTopic)
	serverApp.OnShutdown(func(context.Context) error { return publisher.Close() })

	authorizer := initAuthorizer(ctx, cfg)
	bookingService := initServices(ctx, cfg, publisher)

	serverApp.SetApp(cfg,
		handler.NewBookingHandler(bookingService, authorizer, cfg.Log),
		auth.NewHandler(authorizer, cfg.Log),
	)
	serverApp.Run()
}

func initServices(ctx context.Context, cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	paymentEventRepo := repository.NewMongoPaymentEventRepository(cfg)

	var gateway payments.Gateway
	if cfg.PaymentsEnabled() {
		gateway = payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.AppURL, cfg.ExternalCallTimeout)
		cfg.Log.Info("Stripe payments enabled", "booking_fee_cents", cfg.BookingFeeCents, "currency", cfg.BookingCurrency)
	} else {
		cfg.Log.Warn("Stripe not configured, payment links and webhooks are disabled")
	}

	var scheduler calendar.Scheduler
	if cfg.CalendarEnabled() {
		googleCalendar, err := calendar.NewGoogleCalendar(ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleCalendarRefreshToken,
			cfg.GoogleCalendarID,
			cfg.CalendarTimezone,
			cfg.ExternalCallTimeout,
		)
		if err != nil {
			cfg.Log.Fatal("Failed to initialize Google Calendar", "error", err)
		}
		scheduler = googleCalendar
		cfg.Log.Info("Google Calendar enabled", "calendar_id", cfg.GoogleCalendarID, "timezone", cfg.CalendarTimezone)
	} else {
		cfg.Log.Warn("Google Calendar not configured, scheduled approvals are disabled")
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		paymentEventRepo,
		bookingValidator,
		gateway,
		scheduler,
		initNotifier(cfg),
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initNotifier(cfg *config.Config) notifications.Notifier {
	var sender notifications.Sender = notifications.NewLogSender(cfg.Log)
	if cfg.MailEnabled() {
		smtpSender, err := notifications.NewSMTPSender(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.ExternalCallTimeout,
		})
		if err != nil {
			cfg.Log.Fatal("Failed to initialize SMTP sender", "error", err)
		}
		sender = smtpSender
		cfg.Log.Info("SMTP mail enabled", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	} else {
		cfg.Log.Warn("SMTP not configured, emails will only be logged")
	}
	return notifications.NewMailer(sender, cfg.EmailFrom, cfg.AdminNotificationEmail, cfg.AppURL, cfg.Log)
}

func initAuthorizer(ctx context.Context, cfg *config.Config) *auth.Authorizer {
	var verifier auth.TokenVerifier = auth.DisabledVerifier{}
	if cfg.IdentityEnabled() {
		googleVerifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, cfg.ExternalCallTimeout)
		if err != nil {
			cfg.Log.Fatal("Failed to initialize Google token verifier", "error", err)
		}
		verifier = googleVerifier
	} else {
		cfg.Log.Warn("Google identity not configured, admin endpoints will reject every request")
	}
	return auth.NewAuthorizer(verifier, cfg.AdminEmails, cfg.Log)
}

func initPublisher(cfg *config.Config, topic string) events.Publisher {
	if !cfg.KafkaEnabled() {
		cfg.Log.Info("Kafka not configured, domain events are discarded")
		return events.NopPublisher{}
	}

	kafkaCfg := kafka_config.New(cfg.KafkaBrokers, ServiceName)
	producer, err := kafka.NewProducer(kafkaCfg, topic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err, "topic", topic)
	}
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	cfg.Log.Info("Kafka publishing enabled", "topic", topic, "brokers", cfg.KafkaBrokers)
	return events.NewKafkaPublisher(producer, ServiceName, kafkaCfg.PublishTimeout, cfg.Log)
}
