package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"portfolio/pkg/config"
	"portfolio/pkg/contracts"
	apperrors "portfolio/pkg/errors"
	httputil "portfolio/pkg/http"
	"portfolio/pkg/middleware"
	"portfolio/pkg/obs"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebhookPrefix is exempt from rate limiting so processor retries are never throttled.
const WebhookPrefix = "/api/v1/webhooks/"

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      middleware.RateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	shutdownHooks    []func(context.Context) error
}

func NewApplication() *Application {
	return &Application{}
}

func (a *Application) SetApp(cfg *config.Config, appHandlers ...contracts.Handler) {
	a.cfg = cfg
	a.setHealthHandler(cfg)
	a.setAppHandler(cfg, appHandlers...)
	a.setAppServer()
}

// OnShutdown registers fn to run after the HTTP server has drained, in
// registration order.
func (a *Application) OnShutdown(fn func(context.Context) error) {
	a.shutdownHooks = append(a.shutdownHooks, fn)
}

// Handler returns the fully wired HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(cfg *config.Config) {
	deps := map[string]Pinger{}
	if cfg.Client != nil && cfg.Client.Mongo != nil {
		deps["mongo"] = mongoPinger{client: cfg.Client.Mongo}
	}
	if cfg.Client != nil && cfg.Client.Redis != nil {
		deps["redis"] = redisPinger{client: cfg.Client.Redis}
	}

	healthRouter := httprouter.New()
	NewHealthHandler(deps, cfg.Log).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(cfg *config.Config, appHandlers ...contracts.Handler) {
	appRouter := httprouter.New()
	appRouter.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.WriteError(w, apperrors.NotFound("Route"))
	})
	appRouter.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.WriteError(w, apperrors.MethodNotAllowed())
	})
	var idempotentPaths []string
	for _, h := range appHandlers {
		h.RegisterRoutes(appRouter)
		if ih, ok := h.(contracts.IdempotentHandler); ok {
			idempotentPaths = append(idempotentPaths, ih.IdempotentPaths()...)
		}
	}

	if cfg.Client != nil && cfg.Client.Redis != nil {
		a.idempotencyStore = middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL)
		a.rateLimiter = middleware.NewRedisRateLimiter(cfg.Client.Redis, cfg.RateLimitRequests, cfg.RateLimitWindow)
		cfg.Log.Info("Using Redis for rate limiting and idempotency")
	} else {
		a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
		a.rateLimiter = middleware.NewInMemoryRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	var appHttpHandler http.Handler = appRouter
	if len(idempotentPaths) > 0 {
		appHttpHandler = middleware.Idempotency(a.idempotencyStore, middleware.DefaultIdempotencyHeader, cfg.Log, idempotentPaths...)(appHttpHandler)
	}
	appHttpHandler = middleware.RequestTimeout(cfg.RequestTimeout, cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter, middleware.ClientIPExtractor, cfg.Log, WebhookPrefix)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.CORS(cfg.CORSAllowedOrigins)(appHttpHandler)
	appHttpHandler = middleware.Metrics(appRouter)(appHttpHandler)
	appHttpHandler = obs.HTTPTracing(cfg.ServiceName)(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, hook := range a.shutdownHooks {
		if err := hook(ctx); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "error", err)
		}
	}
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
