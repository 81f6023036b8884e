package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxscribe/internal/domain"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, time.Minute)
	token, exp, err := issuer.IssueSession(&domain.User{ID: "user-1", Email: "ada@example.com", DisplayName: "Ada"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	sess, err := issuer.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "ada@example.com", sess.Email)
	assert.Equal(t, "Ada", sess.DisplayName)
}

func TestVerifySessionRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, time.Minute)
	other := NewTokenIssuer("other-secret", time.Hour, time.Minute)

	foreign, _, err := other.IssueSession(&domain.User{ID: "user-1"})
	require.NoError(t, err)
	_, err = issuer.VerifySession(foreign)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), "wrong secret: %v", err)

	service, err := issuer.ServiceToken(context.Background(), &Session{UserID: "user-1"})
	require.NoError(t, err)
	_, err = issuer.VerifySession(service)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "service token must not open a session")

	expiring := NewTokenIssuer("secret", time.Hour, time.Minute)
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expiring.IssueSession(&domain.User{ID: "user-1"})
	require.NoError(t, err)
	_, err = issuer.VerifySession(stale)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = issuer.VerifySession("")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestServiceTokenAudience(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, time.Minute)
	token, err := issuer.ServiceToken(context.Background(), &Session{UserID: "user-9", Email: "x@example.com"})
	require.NoError(t, err)

	sess, err := issuer.verify(token, AudienceTranscribe)
	require.NoError(t, err)
	assert.Equal(t, "user-9", sess.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Minute), sess.ExpiresAt, 5*time.Second)

	_, err = issuer.ServiceToken(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
