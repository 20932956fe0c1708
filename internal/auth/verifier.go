package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"portfolio/pkg/model"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
)

var (
	ErrInvalidToken = errors.New("invalid token")

	// ErrProviderUnavailable means the token could not be checked at all,
	// for example because Google's signing keys could not be fetched.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// TokenVerifier resolves a bearer credential to a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.Principal, error)
}

// GoogleVerifier checks Google-issued ID tokens: signature against Google's
// published keys, issuer, expiry and the audience (our OAuth client id).
type GoogleVerifier struct {
	validator *idtoken.Validator
	audience  string
	timeout   time.Duration
}

func NewGoogleVerifier(ctx context.Context, audience string, timeout time.Duration) (*GoogleVerifier, error) {
	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create ID token validator: %w", err)
	}
	return &GoogleVerifier{validator: validator, audience: audience, timeout: timeout}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*model.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	payload, err := v.validator.Validate(ctx, token, v.audience)
	if err != nil {
		return nil, classifyValidationError(err)
	}
	return PrincipalFromClaims(payload.Subject, payload.Claims)
}

// classifyValidationError separates transport failures from tokens that were
// checked and rejected.
func classifyValidationError(err error) error {
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

// PrincipalFromClaims requires a verified email claim.
func PrincipalFromClaims(subject string, claims map[string]any) (*model.Principal, error) {
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}

	if !emailVerified(claims["email_verified"]) {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidToken)
	}

	name, _ := claims["name"].(string)
	return &model.Principal{Email: email, Name: name, Subject: subject}, nil
}

// Google encodes email_verified as a bool, some older tokens as a string.
func emailVerified(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return value == "true"
	default:
		return false
	}
}

// DisabledVerifier rejects every token. It is used when no OAuth client id is
// configured, which leaves admin endpoints closed.
type DisabledVerifier struct{}

func (DisabledVerifier) Verify(context.Context, string) (*model.Principal, error) {
	return nil, fmt.Errorf("%w: identity verification is not configured", ErrInvalidToken)
}
