package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"voxscribe/internal/domain"
	"voxscribe/internal/infra/google"
)

type memUsers struct {
	mu     sync.Mutex
	seq    int
	users  map[string]*domain.User
	hashes map[string]string
	calls  int
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*domain.User{}, hashes: map[string]string{}}
}

func (m *memUsers) byEmail(email string) *domain.User {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (m *memUsers) Create(_ context.Context, nu domain.NewUser) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.byEmail(nu.Email) != nil {
		return nil, domain.ErrEmailTaken
	}
	m.seq++
	u := &domain.User{ID: fmt.Sprintf("user-%d", m.seq), Email: nu.Email, DisplayName: nu.DisplayName, Tokens: nu.StartingTokens, GoogleSub: nu.GoogleSub, Country: nu.Country}
	m.users[u.ID] = u
	m.hashes[u.ID] = nu.PasswordHash
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpsertGoogle(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	m.mu.Lock()
	if u := m.byEmail(nu.Email); u != nil {
		if u.GoogleSub == "" {
			u.GoogleSub = nu.GoogleSub
			m.hashes[u.ID] = ""
		}
		cp := *u
		m.mu.Unlock()
		return &cp, nil
	}
	m.mu.Unlock()
	return m.Create(ctx, nu)
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.byEmail(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetCredentials(_ context.Context, email string) (*domain.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byEmail(email)
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.Credentials{UserID: u.ID, Email: u.Email, PasswordHash: m.hashes[u.ID]}, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return domain.ErrNotFound
	}
	m.hashes[userID] = hash
	return nil
}

func (m *memUsers) UpdateProfile(context.Context, string, domain.ProfileUpdate) (*domain.User, error) {
	return nil, fmt.Errorf("not used")
}

func (m *memUsers) CompleteProfile(context.Context, string, string, string) (*domain.User, error) {
	return nil, fmt.Errorf("not used")
}

func (m *memUsers) GrantTokens(context.Context, string, int64) (int64, error) {
	return 0, fmt.Errorf("not used")
}

func (m *memUsers) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, userID)
	return nil
}

type memResets struct {
	tokens map[string]string
}

func (m *memResets) Create(_ context.Context, userID, hash string, _ int) error {
	if m.tokens == nil {
		m.tokens = map[string]string{}
	}
	m.tokens[hash] = userID
	return nil
}

func (m *memResets) Consume(_ context.Context, hash string) (string, error) {
	id, ok := m.tokens[hash]
	if !ok {
		return "", domain.ErrResetTokenInvalid
	}
	delete(m.tokens, hash)
	return id, nil
}

type captureMailer struct {
	to, link string
}

func (c *captureMailer) SendPasswordReset(_ context.Context, to, link string) error {
	c.to, c.link = to, link
	return nil
}

type stubGoogle struct {
	claims *google.Claims
	err    error
}

func (s stubGoogle) VerifyIDToken(context.Context, string) (*google.Claims, error) {
	return s.claims, s.err
}
