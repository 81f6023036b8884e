package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"voxscribe/internal/domain"
	"voxscribe/internal/infra"
	"voxscribe/internal/infra/google"
)

const resetTokenTTL = time.Hour

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*google.Claims, error)
}

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
	Country         string
}

type Options struct {
	Users          domain.UserRepository
	Resets         domain.PasswordResetRepository
	Tokens         *TokenIssuer
	Google         GoogleVerifier
	Mailer         Mailer
	Logger         infra.Logger
	StartingTokens int64
	AppBaseURL     string
}

// Service implements account registration, sign-in and recovery.
type Service struct {
	users          domain.UserRepository
	resets         domain.PasswordResetRepository
	tokens         *TokenIssuer
	google         GoogleVerifier
	mailer         Mailer
	logger         infra.Logger
	startingTokens int64
	appBaseURL     string
}

func NewService(opts Options) *Service {
	return &Service{
		users:          opts.Users,
		resets:         opts.Resets,
		tokens:         opts.Tokens,
		google:         opts.Google,
		mailer:         opts.Mailer,
		logger:         opts.Logger,
		startingTokens: opts.StartingTokens,
		appBaseURL:     strings.TrimRight(opts.AppBaseURL, "/"),
	}
}

// Tokens exposes the issuer used for sessions and service tokens.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// Register validates the form before touching storage, creates the account
// with the starting grant and signs the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := ValidatePassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.Create(ctx, domain.NewUser{
		Email:          email,
		PasswordHash:   hash,
		DisplayName:    strings.TrimSpace(in.DisplayName),
		Country:        in.Country,
		StartingTokens: s.startingTokens,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("account registered")
	return s.issue(user)
}

// Login checks email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	creds, err := s.users.GetCredentials(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			burnCompare(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if creds.PasswordHash == "" {
		burnCompare(password)
		return nil, domain.ErrInvalidCredentials
	}
	if !CheckPassword(creds.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := s.users.GetByID(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// SignInWithGoogle verifies a Google ID token and signs the matching account
// in, creating it with the starting grant on first use.
func (s *Service) SignInWithGoogle(ctx context.Context, idToken, country string) (*AuthResult, error) {
	if s.google == nil || strings.TrimSpace(idToken) == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("google token rejected")
		return nil, domain.ErrUnauthorized
	}
	if !claims.EmailVerified || claims.Email == "" {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.UpsertGoogle(ctx, domain.NewUser{
		Email:          claims.Email,
		GoogleSub:      claims.Subject,
		DisplayName:    claims.Name,
		Country:        country,
		StartingTokens: s.startingTokens,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// RequestPasswordReset mails a single-use reset link. Unknown emails succeed
// silently so the endpoint cannot be used to enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.resets.Create(ctx, user.ID, hashResetToken(token), int(resetTokenTTL.Seconds())); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	link := s.appBaseURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("send reset email failed")
		return errors.Join(domain.ErrProviderFailure, err)
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if err := ValidatePassword(password, confirm); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return domain.ErrResetTokenInvalid
	}
	userID, err := s.resets.Consume(ctx, hashResetToken(token))
	if err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// DeleteAccount removes the caller's account and everything it owns.
func (s *Service) DeleteAccount(ctx context.Context, sess *Session) error {
	if sess == nil || sess.UserID == "" {
		return domain.ErrUnauthorized
	}
	if err := s.users.Delete(ctx, sess.UserID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", sess.UserID).Msg("account deleted")
	return nil
}

func (s *Service) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
