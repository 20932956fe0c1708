package main

import (
	"context"
	"portfolio/internal/analytics/handler"
	"portfolio/internal/analytics/repository"
	"portfolio/internal/analytics/service"
	"portfolio/internal/analytics/validator"
	"portfolio/internal/auth"
	"portfolio/internal/events"
	"portfolio/pkg/app"
	"portfolio/pkg/config"
	"portfolio/pkg/kafka"
	kafka_config "portfolio/pkg/kafka/config"
	kafka_middleware "portfolio/pkg/kafka/middleware"
	"portfolio/pkg/obs"
)

const ServiceName = "analytics"

func main() {
	ctx := context.Background()
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()
	if cfg.AnalyticsSalt == "" {
		cfg.Log.Warn("ANALYTICS_SALT is empty, visitor hashes are predictable")
	}

	cfg.Log.Info("Starting Analytics service")
	cfg.SetMongo()
	cfg.SetRedis()

	serverApp := app.NewApplication()

	shutdownTracer, err := obs.InitTracer(ctx, ServiceName, cfg.OTelEndpoint, cfg.Environment, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize tracing", "error", err)
	}
	serverApp.OnShutdown(shutdownTracer)

	publisher := initPublisher(cfg)
	serverApp.OnShutdown(func(context.Context) error { return publisher.Close() })

	analyticsService := service.NewAnalyticsService(
		repository.NewMongoAnalyticsRepository(cfg),
		validator.NewAnalyticsValidator(cfg.Log),
		publisher,
		cfg,
	)

	serverApp.SetApp(cfg, handler.NewAnalyticsHandler(analyticsService, initAuthorizer(ctx, cfg), cfg.Log))
	serverApp.Run()
}

func initAuthorizer(ctx context.Context, cfg *config.Config) *auth.Authorizer {
	var verifier auth.TokenVerifier = auth.DisabledVerifier{}
	if cfg.IdentityEnabled() {
		googleVerifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, cfg.ExternalCallTimeout)
		if err != nil {
			cfg.Log.Fatal("Failed to initialize Google token verifier", "error", err)
		}
		verifier = googleVerifier
	}
	return auth.NewAuthorizer(verifier, cfg.AdminEmails, cfg.Log)
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled() {
		return events.NopPublisher{}
	}

	kafkaCfg := kafka_config.New(cfg.KafkaBrokers, ServiceName)
	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaAnalyticsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err, "topic", cfg.KafkaAnalyticsTopic)
	}
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	return events.NewKafkaPublisher(producer, ServiceName, kafkaCfg.PublishTimeout, cfg.Log)
}
