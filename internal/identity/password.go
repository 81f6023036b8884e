package identity

import (
	"errors"
	"net/mail"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"voxscribe/internal/domain"
)

const (
	minPasswordLength = 6
	bcryptCost        = 10
)

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a password with its bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// burnCompare spends the same bcrypt work as a real check so unknown
// emails are not distinguishable by timing.
func burnCompare(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("voxscribe-dummy-password")
	})
	_ = CheckPassword(dummyHash, password)
}

// ValidatePassword checks confirmation and strength.
func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return domain.ErrPasswordMismatch
	}
	if len(password) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	return nil
}

// NormalizeEmail validates an email address and returns its bare form.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.Join(domain.ErrInvalidEmail, err)
	}
	return addr.Address, nil
}
