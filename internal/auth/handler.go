package auth

import (
	"net/http"
	apperrors "portfolio/pkg/errors"
	httputil "portfolio/pkg/http"
	"portfolio/pkg/logger"
	"strings"

	"github.com/julienschmidt/httprouter"
)

type verifyRequest struct {
	Credential string `json:"credential"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

type Handler struct {
	authorizer *Authorizer
	log        *logger.Logger
}

func NewHandler(authorizer *Authorizer, log *logger.Logger) *Handler {
	return &Handler{authorizer: authorizer, log: log}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/verify", h.Verify)
}

// Verify lets the admin front end check a Google credential before showing
// the dashboard. The credential itself remains the bearer token afterwards.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req verifyRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		_ = httputil.WriteError(w, err)
		return
	}

	credential := strings.TrimSpace(req.Credential)
	if credential == "" {
		_ = httputil.WriteError(w, apperrors.InvalidInput("Missing credential"))
		return
	}

	principal, err := h.authorizer.AuthorizeToken(r.Context(), credential)
	if err != nil {
		_ = httputil.WriteError(w, err)
		return
	}

	h.log.Info("Admin login successful", "email", principal.Email)
	_ = httputil.WriteSuccess(w, verifyResponse{
		Success: true,
		Email:   principal.Email,
		Name:    principal.Name,
		Message: "Authentication successful",
	})
}
