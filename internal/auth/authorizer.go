package auth

import (
	"context"
	"errors"
	"net/http"
	apperrors "portfolio/pkg/errors"
	httputil "portfolio/pkg/http"
	"portfolio/pkg/logger"
	"portfolio/pkg/middleware"
	"portfolio/pkg/model"
	"portfolio/pkg/sanitizer"
	"strings"

	"github.com/julienschmidt/httprouter"
)

const (
	MsgMissingToken = "Missing authorization token"
	MsgInvalidToken = "Invalid token"
	MsgAccessDenied = "Access denied"
)

type principalKey struct{}

type Authorizer struct {
	verifier TokenVerifier
	admins   map[string]struct{}
	log      *logger.Logger
}

func NewAuthorizer(verifier TokenVerifier, adminEmails []string, log *logger.Logger) *Authorizer {
	emails := sanitizer.NormalizeStringSlice(adminEmails, strings.TrimSpace)
	admins := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		admins[email] = struct{}{}
	}
	return &Authorizer{verifier: verifier, admins: admins, log: log}
}

// IsAdmin is an exact, case-sensitive match against the allow-list.
func (a *Authorizer) IsAdmin(principal *model.Principal) bool {
	if principal == nil {
		return false
	}
	_, ok := a.admins[strings.TrimSpace(principal.Email)]
	return ok
}

// AuthorizeToken verifies token and requires an allow-listed principal.
func (a *Authorizer) AuthorizeToken(ctx context.Context, token string) (*model.Principal, error) {
	if token == "" {
		return nil, apperrors.Unauthorized(MsgMissingToken)
	}

	principal, err := a.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			a.log.Debug("Rejected bearer token", "error", err)
			return nil, apperrors.Unauthorized(MsgInvalidToken)
		}
		a.log.Error("Token verification failed", "error", err)
		return nil, apperrors.ExternalService("Identity provider", err)
	}

	if !a.IsAdmin(principal) {
		a.log.Warn("Non-admin principal denied", "email", principal.Email)
		return nil, apperrors.Forbidden(MsgAccessDenied)
	}

	return principal, nil
}

func (a *Authorizer) Authorize(r *http.Request) (*model.Principal, error) {
	token, ok := httputil.BearerToken(r)
	if !ok {
		return nil, apperrors.Unauthorized(MsgMissingToken)
	}
	return a.AuthorizeToken(r.Context(), token)
}

// RequireAdmin rejects the request before next runs unless the bearer token
// belongs to an allow-listed admin. The principal is stored in the context.
func (a *Authorizer) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		principal, err := a.Authorize(r)
		if err != nil {
			a.log.Debug("Admin request rejected",
				"request_id", middleware.RequestIDFromContext(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
			_ = httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next(w, r.WithContext(ctx), ps)
	}
}

func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(*model.Principal)
	return principal, ok
}

// WithPrincipal is used by tests and background callers that already hold a
// verified principal.
func WithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}
