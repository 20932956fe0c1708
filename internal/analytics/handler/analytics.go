package handler

import (
	"net/http"
	"portfolio/internal/analytics/service"
	"portfolio/internal/auth"
	httputil "portfolio/pkg/http"
	"portfolio/pkg/logger"
	"portfolio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AnalyticsHandler struct {
	service    service.AnalyticsService
	authorizer *auth.Authorizer
	log        *logger.Logger
}

func NewAnalyticsHandler(service service.AnalyticsService, authorizer *auth.Authorizer, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:    service,
		authorizer: authorizer,
		log:        log,
	}
}

func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.TrackRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Track", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	client := service.ClientInfo{
		IP:        httputil.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if err := h.service.Track(r.Context(), &req, client); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Track", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]bool{"ok": true}); err != nil {
		h.log.Error("failed to write success response", "handler", "Track", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Summary", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AnalyticsHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/analytics/events", h.Track)
	router.GET("/api/v1/analytics/summary", h.authorizer.RequireAdmin(h.Summary))
}
