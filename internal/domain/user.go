package domain

import (
	"strings"
	"time"
)

// User is an account together with its profile document: token balance,
// usage counters and the profile-completion flag.
type User struct {
	ID                  string
	Email               string
	DisplayName         string
	Name                string
	Occupation          string
	ProfileCompleted    bool
	Tokens              int64
	TotalTranscriptions int64
	WordsTranscribed    int64
	GoogleSub           string
	Country             string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FirstName returns the first whitespace-separated word of the display name.
func (u User) FirstName() string {
	fields := strings.Fields(u.DisplayName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Greeting picks the name shown on the dashboard.
func (u User) Greeting() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if first := u.FirstName(); first != "" {
		return first
	}
	return "User"
}

// NeedsProfile reports whether the profile-completion prompt must be shown.
// A missing profile document counts as incomplete.
func NeedsProfile(u *User) bool {
	return u == nil || !u.ProfileCompleted
}

// Credentials carries the password hash for sign-in checks. It never leaves
// the identity layer.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash string
}

// NewUser describes an account about to be created.
type NewUser struct {
	Email          string
	PasswordHash   string
	GoogleSub      string
	DisplayName    string
	Country        string
	StartingTokens int64
}

// ProfileUpdate holds optional profile edits; nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	Name        *string
	Occupation  *string
}
