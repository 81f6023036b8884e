package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"voxscribe/internal/billing"
	"voxscribe/internal/domain"
	"voxscribe/internal/identity"
	"voxscribe/internal/middleware"
	"voxscribe/internal/providers/payments"
	"voxscribe/internal/transcribe"
)

var testUser = &domain.User{
	ID:          "u1",
	Email:       "ada@example.com",
	DisplayName: "Ada Lovelace",
	Tokens:      5000,
	CreatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
}

func withSession(r *http.Request) *http.Request {
	sess := &identity.Session{UserID: testUser.ID, Email: testUser.Email, DisplayName: testUser.DisplayName}
	return r.WithContext(middleware.ContextWithSession(r.Context(), sess))
}

type stubIdentity struct {
	err         error
	lastCountry string
	deleted     string
}

func (s *stubIdentity) result() (*identity.AuthResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &identity.AuthResult{Token: "session-token", ExpiresAt: time.Now().Add(time.Hour), User: testUser}, nil
}

func (s *stubIdentity) Register(_ context.Context, in identity.RegisterInput) (*identity.AuthResult, error) {
	s.lastCountry = in.Country
	return s.result()
}

func (s *stubIdentity) Login(context.Context, string, string) (*identity.AuthResult, error) {
	return s.result()
}

func (s *stubIdentity) SignInWithGoogle(_ context.Context, _ string, country string) (*identity.AuthResult, error) {
	s.lastCountry = country
	return s.result()
}

func (s *stubIdentity) RequestPasswordReset(context.Context, string) error { return s.err }

func (s *stubIdentity) ResetPassword(context.Context, string, string, string) error { return s.err }

func (s *stubIdentity) DeleteAccount(_ context.Context, sess *identity.Session) error {
	s.deleted = sess.UserID
	return s.err
}

type stubProfiles struct {
	user *domain.User
	err  error
}

func (s *stubProfiles) Get(context.Context, *identity.Session) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubProfiles) Update(context.Context, *identity.Session, domain.ProfileUpdate) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubProfiles) Complete(_ context.Context, _ *identity.Session, name, occupation string) (*domain.User, error) {
	if name == "" || occupation == "" {
		return nil, domain.ErrProfileFieldsRequired
	}
	u := *s.user
	u.Name, u.Occupation, u.ProfileCompleted = name, occupation, true
	return &u, nil
}

type stubTranscriptions struct {
	upload  transcribe.Upload
	body    []byte
	result  *transcribe.Result
	err     error
	items   []domain.Transcription
	archive []byte
	calls   int
}

func (s *stubTranscriptions) Transcribe(_ context.Context, _ *identity.Session, up transcribe.Upload) (*transcribe.Result, error) {
	s.upload = up
	if up.Body != nil {
		s.body, _ = io.ReadAll(up.Body)
	}
	return s.result, s.err
}

func (s *stubTranscriptions) List(context.Context, *identity.Session, int, int) ([]domain.Transcription, error) {
	return s.items, s.err
}

func (s *stubTranscriptions) Get(_ context.Context, _ *identity.Session, id string) (*domain.Transcription, error) {
	s.calls++
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubTranscriptions) Delete(context.Context, *identity.Session, string) error {
	s.calls++
	return s.err
}

func (s *stubTranscriptions) Export(context.Context, *identity.Session) ([]byte, error) {
	return s.archive, s.err
}

type stubBilling struct {
	err          error
	credit       *domain.CreditResult
	signature    string
	lastIntentID string
}

func (s *stubBilling) Packages() []domain.TokenPackage { return domain.TokenPackages() }

func (s *stubBilling) StartPurchase(_ context.Context, _ *identity.Session, tokens int64) (*billing.PaymentIntent, error) {
	if s.err != nil {
		return nil, s.err
	}
	pkg, err := domain.FindTokenPackage(tokens)
	if err != nil {
		return nil, err
	}
	return &billing.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret", Tokens: tokens, AmountCents: pkg.AmountCents(), Currency: "usd"}, nil
}

func (s *stubBilling) StartCheckout(context.Context, *identity.Session, int64) (*payments.CheckoutSession, error) {
	return &payments.CheckoutSession{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, s.err
}

func (s *stubBilling) ConfirmPurchase(_ context.Context, _ *identity.Session, id string) (*domain.CreditResult, error) {
	s.lastIntentID = id
	return s.credit, s.err
}

func (s *stubBilling) HandleWebhook(_ context.Context, _ []byte, signature string) (*domain.CreditResult, error) {
	s.signature = signature
	return s.credit, s.err
}

func (s *stubBilling) History(context.Context, *identity.Session) ([]domain.Purchase, error) {
	return []domain.Purchase{{PaymentIntentID: "pi_1", Tokens: 1000, AmountCents: 100, Currency: "usd", Status: domain.PurchaseCredited}}, s.err
}

type stubTokens struct{}

func (stubTokens) ServiceToken(context.Context, *identity.Session) (string, error) {
	return "service-token", nil
}

func newTestApp() *App {
	return &App{
		Identity:       &stubIdentity{},
		Profiles:       &stubProfiles{user: testUser},
		Transcriptions: &stubTranscriptions{},
		Billing:        &stubBilling{},
		Tokens:         stubTokens{},
		Logger:         zerolog.Nop(),
		MaxUploadBytes: 1 << 20,
	}
}
