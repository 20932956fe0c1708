package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"portfolio/pkg/logger"
	"portfolio/pkg/model"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type mockVerifier struct {
	VerifyFunc func(ctx context.Context, token string) (*model.Principal, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*model.Principal, error) {
	return m.VerifyFunc(ctx, token)
}

func tokenVerifier() *mockVerifier {
	return &mockVerifier{
		VerifyFunc: func(ctx context.Context, token string) (*model.Principal, error) {
			switch token {
			case "admin-token":
				return &model.Principal{Email: "admin@example.com", Name: "Admin"}, nil
			case "user-token":
				return &model.Principal{Email: "someone@example.com"}, nil
			case "broken-token":
				return nil, fmt.Errorf("%w: certs endpoint unreachable", ErrProviderUnavailable)
			default:
				return nil, fmt.Errorf("%w: bad signature", ErrInvalidToken)
			}
		},
	}
}

func TestAuthorizer_IsAdmin(t *testing.T) {
	a := NewAuthorizer(tokenVerifier(), []string{" admin@example.com ", "", "second@example.com"}, logger.Nop())

	tests := []struct {
		email string
		want  bool
	}{
		{"admin@example.com", true},
		{"second@example.com", true},
		{"Admin@example.com", false},
		{"someone@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := a.IsAdmin(&model.Principal{Email: tt.email}); got != tt.want {
			t.Errorf("IsAdmin(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
	if a.IsAdmin(nil) {
		t.Error("expected nil principal not to be admin")
	}
}

func TestAuthorizer_RequireAdmin(t *testing.T) {
	a := NewAuthorizer(tokenVerifier(), []string{"admin@example.com"}, logger.Nop())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"no header", "", http.StatusUnauthorized, MsgMissingToken},
		{"not bearer", "Basic abc", http.StatusUnauthorized, MsgMissingToken},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, MsgMissingToken},
		{"invalid token", "Bearer forged", http.StatusUnauthorized, MsgInvalidToken},
		{"identity provider down", "Bearer broken-token", http.StatusInternalServerError, "Identity provider request failed"},
		{"non admin", "Bearer user-token", http.StatusForbidden, MsgAccessDenied},
		{"admin", "Bearer admin-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var principal *model.Principal
			handle := a.RequireAdmin(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
				called = true
				principal, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handle(rec, req, nil)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if !called || principal == nil || principal.Email != "admin@example.com" {
					t.Errorf("expected handler to run with admin principal, got called=%v principal=%+v", called, principal)
				}
				return
			}

			if called {
				t.Error("expected handler not to run")
			}
			var body map[string]any
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["error"] != tt.wantError {
				t.Errorf("expected error %q, got %v", tt.wantError, body["error"])
			}
		})
	}
}

func TestHandler_Verify(t *testing.T) {
	a := NewAuthorizer(tokenVerifier(), []string{"admin@example.com"}, logger.Nop())
	router := httprouter.New()
	NewHandler(a, logger.Nop()).RegisterRoutes(router)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"admin", `{"credential":"admin-token"}`, http.StatusOK},
		{"missing credential", `{}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
		{"invalid", `{"credential":"forged"}`, http.StatusUnauthorized},
		{"non admin", `{"credential":"user-token"}`, http.StatusForbidden},
		{"identity provider down", `{"credential":"broken-token"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				var resp verifyResponse
				_ = json.Unmarshal(rec.Body.Bytes(), &resp)
				if !resp.Success || resp.Email != "admin@example.com" || resp.Name != "Admin" {
					t.Errorf("unexpected response %+v", resp)
				}
			}
		})
	}
}

func TestClassifyValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"bad signature", errors.New("idtoken: invalid token signature"), ErrInvalidToken},
		{"expired", errors.New("idtoken: token expired"), ErrInvalidToken},
		{"audience mismatch", errors.New("idtoken: audience provided does not match aud claim"), ErrInvalidToken},
		{"certs unreachable", &url.Error{Op: "Get", URL: "https://www.googleapis.com/oauth2/v3/certs", Err: errors.New("connection refused")}, ErrProviderUnavailable},
		{"deadline", fmt.Errorf("fetch certs: %w", context.DeadlineExceeded), ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyValidationError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if tt.want == ErrProviderUnavailable && errors.Is(got, ErrInvalidToken) {
				t.Errorf("provider failure must not read as an invalid token: %v", got)
			}
		})
	}
}

func TestPrincipalFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]any
		wantErr bool
	}{
		{"verified", map[string]any{"email": "admin@example.com", "email_verified": true, "name": "Admin"}, false},
		{"verified as string", map[string]any{"email": "admin@example.com", "email_verified": "true"}, false},
		{"unverified", map[string]any{"email": "admin@example.com", "email_verified": false}, true},
		{"missing verified flag", map[string]any{"email": "admin@example.com"}, true},
		{"missing email", map[string]any{"email_verified": true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := PrincipalFromClaims("sub-1", tt.claims)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if principal.Subject != "sub-1" || principal.Email != "admin@example.com" {
				t.Errorf("unexpected principal %+v", principal)
			}
		})
	}
}

func TestDisabledVerifier(t *testing.T) {
	if _, err := (DisabledVerifier{}).Verify(context.Background(), "anything"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
