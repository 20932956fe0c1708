package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	httputil "portfolio/pkg/http"
	"portfolio/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the service cannot serve traffic without.
type Pinger interface {
	Ping(ctx context.Context) error
}

type mongoPinger struct{ client *mongo.Client }

func (p mongoPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx, nil) }

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type HealthHandler struct {
	deps map[string]Pinger
	log  *logger.Logger
}

func NewHealthHandler(deps map[string]Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		deps: deps,
		log:  log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	response := HealthResponse{Status: "ready", Checks: make(map[string]string, len(h.deps))}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"dependency", name,
				"error", err,
				"path", r.URL.Path,
			)
			response.Checks[name] = "error"
			response.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}

	if err := httputil.WriteJSON(w, status, response); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
