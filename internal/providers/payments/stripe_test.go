package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"voxscribe/internal/domain"
)

func sign(t *testing.T, secret string, payload []byte, at time.Time) string {
	t.Helper()
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

const intentEvent = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "data": {"object": {
    "id": "pi_123",
    "object": "payment_intent",
    "amount": 350,
    "currency": "usd",
    "status": "succeeded",
    "metadata": {"user_id": "u1", "tokens": "5000"}
  }}
}`

func TestParseWebhook(t *testing.T) {
	g := NewStripeGateway("", "whsec_test")
	payload := []byte(intentEvent)

	ev, err := g.ParseWebhook(payload, sign(t, "whsec_test", payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	require.NotNil(t, ev.Intent)
	assert.Equal(t, "pi_123", ev.Intent.ID)
	assert.Equal(t, IntentSucceeded, ev.Intent.Status)
	assert.Equal(t, int64(350), ev.Intent.AmountCents)
	assert.Equal(t, "5000", ev.Intent.Metadata["tokens"])
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := NewStripeGateway("", "whsec_test")
	payload := []byte(intentEvent)

	_, err := g.ParseWebhook(payload, sign(t, "whsec_other", payload, time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = g.ParseWebhook(payload, sign(t, "whsec_test", payload, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = NewStripeGateway("", "").ParseWebhook(payload, "t=1,v1=00")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

type fakeIntents struct {
	created *stripe.PaymentIntentParams
	intent  *stripe.PaymentIntent
	err     error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_new", ClientSecret: "pi_new_secret", Status: stripe.PaymentIntentStatusRequiresPaymentMethod, Amount: *params.Amount, Currency: stripe.Currency(*params.Currency), Metadata: params.Metadata}, nil
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

type fakeSessions struct {
	params *stripe.CheckoutSessionParams
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}, nil
}

func TestCreatePaymentIntent(t *testing.T) {
	intents := &fakeIntents{}
	g := &StripeGateway{intents: intents, sessions: &fakeSessions{}}

	pi, err := g.CreatePaymentIntent(context.Background(), IntentRequest{
		AmountCents: 350,
		Currency:    "usd",
		Metadata:    map[string]string{"user_id": "u1", "tokens": "5000"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_new_secret", pi.ClientSecret)
	assert.Equal(t, int64(350), *intents.created.Amount)
	assert.Equal(t, "u1", intents.created.Metadata["user_id"])
	assert.True(t, *intents.created.AutomaticPaymentMethods.Enabled)
}

func TestGetPaymentIntentErrors(t *testing.T) {
	g := &StripeGateway{intents: &fakeIntents{err: &stripe.Error{HTTPStatusCode: 404}}, sessions: &fakeSessions{}}
	_, err := g.GetPaymentIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	g = &StripeGateway{intents: &fakeIntents{err: errors.New("network")}, sessions: &fakeSessions{}}
	_, err = g.GetPaymentIntent(context.Background(), "pi_x")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)

	_, err = NewStripeGateway("", "").GetPaymentIntent(context.Background(), "pi_x")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestCreateCheckoutSession(t *testing.T) {
	sessions := &fakeSessions{}
	g := &StripeGateway{intents: &fakeIntents{}, sessions: sessions}
	s, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{
		AmountCents: 100,
		Currency:    "usd",
		ProductName: "1,000 tokens",
		SuccessURL:  "https://app/success",
		CancelURL:   "https://app/pricing",
		Metadata:    map[string]string{"user_id": "u1", "tokens": "1000"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", s.ID)
	assert.Equal(t, "payment", *sessions.params.Mode)
	assert.Equal(t, int64(100), *sessions.params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "1000", sessions.params.PaymentIntentData.Metadata["tokens"])
}
