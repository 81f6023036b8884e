package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"voxscribe/internal/billing"
	"voxscribe/internal/domain"
	"voxscribe/internal/events"
	"voxscribe/internal/identity"
	"voxscribe/internal/infra"
	"voxscribe/internal/metrics"
	"voxscribe/internal/middleware"
	"voxscribe/internal/providers/payments"
	"voxscribe/internal/transcribe"
)

// IdentityService covers sign-up, sign-in and account recovery.
type IdentityService interface {
	Register(ctx context.Context, in identity.RegisterInput) (*identity.AuthResult, error)
	Login(ctx context.Context, email, password string) (*identity.AuthResult, error)
	SignInWithGoogle(ctx context.Context, idToken, country string) (*identity.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
	DeleteAccount(ctx context.Context, sess *identity.Session) error
}

// ProfileService reads and edits the profile document.
type ProfileService interface {
	Get(ctx context.Context, sess *identity.Session) (*domain.User, error)
	Update(ctx context.Context, sess *identity.Session, update domain.ProfileUpdate) (*domain.User, error)
	Complete(ctx context.Context, sess *identity.Session, name, occupation string) (*domain.User, error)
}

// TranscriptionService runs uploads and manages stored transcripts.
type TranscriptionService interface {
	Transcribe(ctx context.Context, sess *identity.Session, up transcribe.Upload) (*transcribe.Result, error)
	List(ctx context.Context, sess *identity.Session, limit, offset int) ([]domain.Transcription, error)
	Get(ctx context.Context, sess *identity.Session, id string) (*domain.Transcription, error)
	Delete(ctx context.Context, sess *identity.Session, id string) error
	Export(ctx context.Context, sess *identity.Session) ([]byte, error)
}

// BillingService sells token packages.
type BillingService interface {
	Packages() []domain.TokenPackage
	StartPurchase(ctx context.Context, sess *identity.Session, tokens int64) (*billing.PaymentIntent, error)
	StartCheckout(ctx context.Context, sess *identity.Session, tokens int64) (*payments.CheckoutSession, error)
	ConfirmPurchase(ctx context.Context, sess *identity.Session, paymentIntentID string) (*domain.CreditResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.CreditResult, error)
	History(ctx context.Context, sess *identity.Session) ([]domain.Purchase, error)
}

// ServiceTokens mints the short-lived identity token handed to clients.
type ServiceTokens interface {
	ServiceToken(ctx context.Context, sess *identity.Session) (string, error)
}

// Pinger reports database reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App carries the dependencies shared by every handler.
type App struct {
	Identity       IdentityService
	Profiles       ProfileService
	Transcriptions TranscriptionService
	Billing        BillingService
	Tokens         ServiceTokens
	Events         events.Broker
	DB             Pinger
	Metrics        *metrics.Metrics
	Logger         infra.Logger
	MaxUploadBytes int64
	// Closing ends open event streams when the server starts shutting down.
	Closing <-chan struct{}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

// fail maps a service error onto a status and a user-facing message.
// Upstream and unexpected failures get generic text; the cause is logged.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	a.error(w, status, code, msg)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrTranscription):
		return http.StatusBadGateway, "transcription_failed", "transcription failed, please try again"
	case errors.Is(err, domain.ErrStorage):
		return http.StatusBadGateway, "storage_failed", "upload failed, please try again"
	case errors.Is(err, domain.ErrProviderFailure):
		return http.StatusBadGateway, "upstream_failed", "an upstream service failed, please try again"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "sign in required"
	case errors.Is(err, domain.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, "unsupported_media", "only mp3, wav, mp4 and webm files are accepted"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email_taken", domain.ErrEmailTaken.Error()
	case errors.Is(err, domain.ErrDuplicateOperation):
		return http.StatusConflict, "duplicate", domain.ErrDuplicateOperation.Error()
	case errors.Is(err, domain.ErrPaymentIncomplete):
		return http.StatusPaymentRequired, "payment_incomplete", domain.ErrPaymentIncomplete.Error()
	case errors.Is(err, domain.ErrPaymentOwnership):
		return http.StatusForbidden, "forbidden", domain.ErrPaymentOwnership.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	}
	for _, v := range []error{
		domain.ErrInvalidEmail,
		domain.ErrWeakPassword,
		domain.ErrPasswordMismatch,
		domain.ErrResetTokenInvalid,
		domain.ErrProfileFieldsRequired,
		domain.ErrUnknownPackage,
	} {
		if errors.Is(err, v) {
			return http.StatusBadRequest, "invalid_request", v.Error()
		}
	}
	return http.StatusInternalServerError, "internal", "something went wrong"
}

// decode reads a JSON body, rejecting unknown shapes with a 400.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// session returns the authenticated caller or writes a 401.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*identity.Session, bool) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	return sess, true
}
