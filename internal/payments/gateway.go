package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventCheckoutComplete = "checkout.session.completed"

	DefaultFailureReason = "Payment failed"
)

// Gateway is the payment processor as seen by the booking service.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error)
	IntentSucceeded(ctx context.Context, reference string) (bool, error)
	ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}

type Intent struct {
	Reference    string
	ClientSecret string
}

type PaymentLinkRequest struct {
	AmountCents int64
	Currency    string
	ProductName string
	Metadata    map[string]string
}

type PaymentLink struct {
	Reference string
	URL       string
}

// WebhookEvent is the processor-neutral view of a verified notification.
// Succeeded is set for payment success events, FailureReason for failures;
// both are empty for event types the service does not act on.
type WebhookEvent struct {
	ID            string
	Type          string
	Reference     string
	Succeeded     bool
	Failed        bool
	FailureReason string
}

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	redirectURL   string
	timeout       time.Duration
}

func NewStripeGateway(secretKey, webhookSecret, redirectURL string, timeout time.Duration) *StripeGateway {
	return NewStripeGatewayWithBackends(secretKey, webhookSecret, redirectURL, timeout, nil)
}

// NewStripeGatewayWithBackends lets callers point the client at a different
// API backend, such as a local stub server.
func NewStripeGatewayWithBackends(secretKey, webhookSecret, redirectURL string, timeout time.Duration, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
		redirectURL:   redirectURL,
		timeout:       timeout,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &Intent{Reference: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	priceParams := &stripe.PriceParams{
		UnitAmount: stripe.Int64(req.AmountCents),
		Currency:   stripe.String(req.Currency),
		ProductData: &stripe.PriceProductDataParams{
			Name:     stripe.String(req.ProductName),
			Metadata: req.Metadata,
		},
	}
	priceParams.Context = ctx

	price, err := g.api.Prices.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("create price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(price.ID), Quantity: stripe.Int64(1)},
		},
	}
	if g.redirectURL != "" {
		linkParams.AfterCompletion = &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(g.redirectURL),
			},
		}
	}
	linkParams.Context = ctx
	for k, v := range req.Metadata {
		linkParams.AddMetadata(k, v)
	}

	link, err := g.api.PaymentLinks.New(linkParams)
	if err != nil {
		return nil, fmt.Errorf("create payment link: %w", err)
	}

	return &PaymentLink{Reference: link.ID, URL: link.URL}, nil
}

func (g *StripeGateway) IntentSucceeded(ctx context.Context, reference string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(reference, params)
	if err != nil {
		return false, fmt.Errorf("retrieve payment intent: %w", err)
	}
	return pi.Status == stripe.PaymentIntentStatusSucceeded, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return result, nil
	}

	switch result.Type {
	case EventPaymentSucceeded, EventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		result.Reference = pi.ID
		if result.Type == EventPaymentSucceeded {
			result.Succeeded = true
			break
		}
		result.Failed = true
		result.FailureReason = DefaultFailureReason
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			result.FailureReason = pi.LastPaymentError.Msg
		}

	case EventCheckoutComplete:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return result, nil
		}
		result.Succeeded = true
		result.Reference = session.ID
		if session.PaymentLink != nil && session.PaymentLink.ID != "" {
			result.Reference = session.PaymentLink.ID
		}
	}

	return result, nil
}
