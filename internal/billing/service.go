package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"voxscribe/internal/domain"
	"voxscribe/internal/events"
	"voxscribe/internal/identity"
	"voxscribe/internal/infra"
	"voxscribe/internal/metrics"
	"voxscribe/internal/providers/payments"
)

const (
	metaUserID = "user_id"
	metaTokens = "tokens"

	historyLimit = 50
)

type Options struct {
	Purchases  domain.PurchaseRepository
	Gateway    payments.Gateway
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Logger     infra.Logger
	Currency   string
	AppBaseURL string
}

// Service sells token packages and turns succeeded payments into tokens.
type Service struct {
	purchases  domain.PurchaseRepository
	gateway    payments.Gateway
	events     events.Publisher
	metrics    *metrics.Metrics
	logger     infra.Logger
	currency   string
	appBaseURL string
}

func NewService(opts Options) *Service {
	pub := opts.Events
	if pub == nil {
		pub = events.Nop{}
	}
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		purchases:  opts.Purchases,
		gateway:    opts.Gateway,
		events:     pub,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		currency:   currency,
		appBaseURL: strings.TrimRight(opts.AppBaseURL, "/"),
	}
}

// Packages returns the catalogue.
func (s *Service) Packages() []domain.TokenPackage {
	return domain.TokenPackages()
}

// PaymentIntent is handed to the browser to confirm the card payment.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Tokens       int64
	AmountCents  int64
	Currency     string
}

// StartPurchase creates a payment intent for the package and records it as
// pending. The amount always comes from the catalogue.
func (s *Service) StartPurchase(ctx context.Context, sess *identity.Session, tokens int64) (*PaymentIntent, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	pkg, err := domain.FindTokenPackage(tokens)
	if err != nil {
		return nil, err
	}
	intent, err := s.gateway.CreatePaymentIntent(ctx, payments.IntentRequest{
		AmountCents:  pkg.AmountCents(),
		Currency:     s.currency,
		Description:  pkg.Label(language.English),
		ReceiptEmail: sess.Email,
		Metadata:     purchaseMetadata(sess.UserID, pkg.Tokens),
	})
	if err != nil {
		return nil, err
	}
	if err := s.purchases.Create(ctx, &domain.Purchase{
		PaymentIntentID: intent.ID,
		UserID:          sess.UserID,
		Tokens:          pkg.Tokens,
		AmountCents:     pkg.AmountCents(),
		Currency:        s.currency,
	}); err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}
	s.metrics.RecordPaymentStarted("payment_intent")
	s.logger.Info().
		Str("user_id", sess.UserID).
		Str("payment_intent_id", intent.ID).
		Int64("tokens", pkg.Tokens).
		Msg("purchase started")
	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Tokens:       pkg.Tokens,
		AmountCents:  pkg.AmountCents(),
		Currency:     s.currency,
	}, nil
}

// StartCheckout creates a hosted checkout session for the package. The
// purchase row is written when the resulting payment intent is credited.
func (s *Service) StartCheckout(ctx context.Context, sess *identity.Session, tokens int64) (*payments.CheckoutSession, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	pkg, err := domain.FindTokenPackage(tokens)
	if err != nil {
		return nil, err
	}
	cs, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		AmountCents:     pkg.AmountCents(),
		Currency:        s.currency,
		ProductName:     pkg.Label(language.English),
		SuccessURL:      s.appBaseURL + "/dashboard?checkout=success",
		CancelURL:       s.appBaseURL + "/pricing",
		CustomerEmail:   sess.Email,
		ClientReference: sess.UserID,
		Metadata:        purchaseMetadata(sess.UserID, pkg.Tokens),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPaymentStarted("checkout_session")
	return cs, nil
}

// ConfirmPurchase credits a payment intent the caller paid for. Confirming
// the same intent again reports AlreadyApplied and changes nothing.
func (s *Service) ConfirmPurchase(ctx context.Context, sess *identity.Session, paymentIntentID string) (*domain.CreditResult, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, domain.ErrNotFound
	}
	stored, err := s.purchases.Get(ctx, paymentIntentID)
	switch {
	case err == nil && stored.UserID != sess.UserID:
		return nil, domain.ErrPaymentOwnership
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("load purchase: %w", err)
	}
	intent, err := s.gateway.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Metadata[metaUserID] != sess.UserID {
		return nil, domain.ErrPaymentOwnership
	}
	if intent.Status != payments.IntentSucceeded {
		return nil, fmt.Errorf("%w: status %s", domain.ErrPaymentIncomplete, intent.Status)
	}
	return s.credit(ctx, intent)
}

// HandleWebhook verifies a gateway event and credits succeeded payment
// intents. Other event types are acknowledged and ignored (nil result).
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.CreditResult, error) {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return nil, err
	}
	if ev.Type != payments.EventIntentSucceeded || ev.Intent == nil {
		s.logger.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("webhook ignored")
		return nil, nil
	}
	if _, err := uuid.Parse(ev.Intent.Metadata[metaUserID]); err != nil {
		s.logger.Warn().Str("payment_intent_id", ev.Intent.ID).Msg("webhook intent without a valid user id")
		return nil, nil
	}
	return s.credit(ctx, ev.Intent)
}

// History lists the caller's purchases, newest first.
func (s *Service) History(ctx context.Context, sess *identity.Session) ([]domain.Purchase, error) {
	if sess == nil || sess.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.purchases.ListByUser(ctx, sess.UserID, historyLimit)
}

func (s *Service) credit(ctx context.Context, intent *payments.Intent) (*domain.CreditResult, error) {
	tokens, err := strconv.ParseInt(intent.Metadata[metaTokens], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad tokens metadata", domain.ErrUnknownPackage)
	}
	pkg, err := domain.FindTokenPackage(tokens)
	if err != nil {
		return nil, err
	}
	if intent.AmountCents < pkg.AmountCents() {
		return nil, fmt.Errorf("%w: paid %d, package costs %d", domain.ErrPaymentIncomplete, intent.AmountCents, pkg.AmountCents())
	}
	currency := strings.ToLower(intent.Currency)
	if currency == "" {
		currency = s.currency
	}
	res, err := s.purchases.ApplyCredit(ctx, &domain.Purchase{
		PaymentIntentID: intent.ID,
		UserID:          intent.Metadata[metaUserID],
		Tokens:          pkg.Tokens,
		AmountCents:     intent.AmountCents,
		Currency:        currency,
	})
	if err != nil {
		return nil, fmt.Errorf("apply credit: %w", err)
	}
	s.metrics.RecordCredit(res.TokensAdded, res.AlreadyApplied)
	s.logger.Info().
		Str("user_id", res.UserID).
		Str("payment_intent_id", res.PaymentIntentID).
		Int64("tokens_added", res.TokensAdded).
		Int64("balance", res.Balance).
		Bool("already_applied", res.AlreadyApplied).
		Msg("purchase credit")
	if !res.AlreadyApplied {
		ev, err := events.New(events.TypeProfileUpdated, res.UserID, map[string]int64{"tokens": res.Balance})
		if err == nil {
			err = s.events.Publish(ctx, ev)
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("event publish failed")
		}
	}
	return res, nil
}

func purchaseMetadata(userID string, tokens int64) map[string]string {
	return map[string]string{
		metaUserID: userID,
		metaTokens: strconv.FormatInt(tokens, 10),
	}
}
