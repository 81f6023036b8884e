package domain

import "context"

// UserRepository defines access methods for accounts and profile documents.
type UserRepository interface {
	Create(ctx context.Context, user NewUser) (*User, error)
	UpsertGoogle(ctx context.Context, user NewUser) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error)
	CompleteProfile(ctx context.Context, userID, name, occupation string) (*User, error)
	GrantTokens(ctx context.Context, userID string, tokens int64) (int64, error)
	Delete(ctx context.Context, userID string) error
}

// TranscriptionRepository persists transcripts. CreateWithDebit writes the
// record, moves the balance down by debit (never below zero) and bumps the
// usage counters in one transaction, returning the stored balance.
type TranscriptionRepository interface {
	CreateWithDebit(ctx context.Context, t *Transcription, debit int64) (int64, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Transcription, error)
	GetForUser(ctx context.Context, userID, id string) (*Transcription, error)
	DeleteForUser(ctx context.Context, userID, id string) error
}

// PurchaseRepository handles purchase persistence and idempotent crediting.
type PurchaseRepository interface {
	Create(ctx context.Context, p *Purchase) error
	Get(ctx context.Context, paymentIntentID string) (*Purchase, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Purchase, error)
	ApplyCredit(ctx context.Context, p *Purchase) (*CreditResult, error)
}

// PasswordResetRepository stores hashed single-use reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, userID, tokenHash string, ttlSeconds int) error
	Consume(ctx context.Context, tokenHash string) (string, error)
}
