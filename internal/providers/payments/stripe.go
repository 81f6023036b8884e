package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"voxscribe/internal/domain"
)

// IntentSucceeded is the payment intent status after a captured payment.
const IntentSucceeded = "succeeded"

// EventIntentSucceeded is the webhook event type that triggers a credit.
const EventIntentSucceeded = "payment_intent.succeeded"

// Intent is the gateway-neutral view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Currency     string
	Metadata     map[string]string
}

type IntentRequest struct {
	AmountCents  int64
	Currency     string
	Description  string
	ReceiptEmail string
	Metadata     map[string]string
}

type CheckoutRequest struct {
	AmountCents     int64
	Currency        string
	ProductName     string
	SuccessURL      string
	CancelURL       string
	CustomerEmail   string
	ClientReference string
	Metadata        map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a verified gateway event. Intent is set for payment intent events.
type WebhookEvent struct {
	ID     string
	Type   string
	Intent *Intent
}

// Gateway is the payment processor seen by the billing service.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetPaymentIntent(ctx context.Context, id string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type checkoutAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway implements Gateway on stripe-go.
type StripeGateway struct {
	intents       intentAPI
	sessions      checkoutAPI
	webhookSecret string
}

// NewStripeGateway builds a gateway from a secret key. An empty key yields a
// gateway whose calls fail with domain.ErrProviderFailure.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	g := &StripeGateway{webhookSecret: webhookSecret}
	if strings.TrimSpace(secretKey) != "" {
		sc := client.New(secretKey, nil)
		g.intents = sc.PaymentIntents
		g.sessions = sc.CheckoutSessions
	}
	return g
}

// Configured reports whether API calls can be made.
func (g *StripeGateway) Configured() bool {
	return g != nil && g.intents != nil && g.sessions != nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if !g.Configured() {
		return nil, errNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	pi, err := g.intents.New(params)
	if err != nil {
		return nil, wrapStripe("create payment intent", err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (*Intent, error) {
	if !g.Configured() {
		return nil, errNotConfigured
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.intents.Get(id, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.HTTPStatusCode == 404 {
			return nil, domain.ErrNotFound
		}
		return nil, wrapStripe("get payment intent", err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if !g.Configured() {
		return nil, errNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
			},
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.ClientReference != "" {
		params.ClientReferenceID = stripe.String(req.ClientReference)
	}
	params.Context = ctx
	s, err := g.sessions.New(params)
	if err != nil {
		return nil, wrapStripe("create checkout session", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g == nil || g.webhookSecret == "" {
		return nil, fmt.Errorf("payments: webhook secret not configured: %w", domain.ErrProviderFailure)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("payments: verify webhook: %w", errors.Join(domain.ErrUnauthorized, err))
	}
	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("payments: decode payment intent: %w", err)
		}
		out.Intent = toIntent(&pi)
	}
	return out, nil
}

var errNotConfigured = fmt.Errorf("payments: stripe not configured: %w", domain.ErrProviderFailure)

func wrapStripe(op string, err error) error {
	return fmt.Errorf("payments: %s: %w", op, errors.Join(domain.ErrProviderFailure, err))
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	md := make(map[string]string, len(pi.Metadata))
	for k, v := range pi.Metadata {
		md[k] = v
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     md,
	}
}

var _ Gateway = (*StripeGateway)(nil)
