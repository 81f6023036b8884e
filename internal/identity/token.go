package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"voxscribe/internal/domain"
)

const (
	tokenIssuer = "voxscribe"

	// AudienceSession marks tokens handed to browser sessions.
	AudienceSession = "voxscribe-web"
	// AudienceTranscribe marks the short-lived tokens presented to the
	// transcription endpoint.
	AudienceTranscribe = "transcribe"
)

// Session is the authenticated caller. It is passed explicitly to every
// service operation that acts on behalf of a user.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	ExpiresAt   time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	serviceTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, sessionTTL, serviceTTL time.Duration) *TokenIssuer {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if serviceTTL <= 0 {
		serviceTTL = 5 * time.Minute
	}
	return &TokenIssuer{secret: []byte(secret), sessionTTL: sessionTTL, serviceTTL: serviceTTL, now: time.Now}
}

// IssueSession signs a browser session token for the user.
func (t *TokenIssuer) IssueSession(u *domain.User) (string, time.Time, error) {
	if u == nil || u.ID == "" {
		return "", time.Time{}, domain.ErrUnauthorized
	}
	exp := t.now().Add(t.sessionTTL)
	token, err := t.sign(u.ID, u.Email, u.DisplayName, AudienceSession, exp)
	return token, exp, err
}

// ServiceToken mints a fresh short-lived identity token for outbound calls
// made on behalf of the session.
func (t *TokenIssuer) ServiceToken(_ context.Context, sess *Session) (string, error) {
	if sess == nil || sess.UserID == "" {
		return "", domain.ErrUnauthorized
	}
	return t.sign(sess.UserID, sess.Email, sess.DisplayName, AudienceTranscribe, t.now().Add(t.serviceTTL))
}

// VerifySession validates a session token and returns its session.
func (t *TokenIssuer) VerifySession(raw string) (*Session, error) {
	return t.verify(raw, AudienceSession)
}

func (t *TokenIssuer) sign(sub, email, name, audience string, exp time.Time) (string, error) {
	now := t.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   sub,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: email,
		Name:  name,
	})
	signed, err := tok.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) verify(raw, audience string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}
	c := &claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, errors.Join(domain.ErrUnauthorized, err)
	}
	if c.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	sess := &Session{UserID: c.Subject, Email: c.Email, DisplayName: c.Name}
	if c.ExpiresAt != nil {
		sess.ExpiresAt = c.ExpiresAt.Time
	}
	return sess, nil
}
