package repo

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"voxscribe/internal/domain"
	"voxscribe/internal/infra"
	"voxscribe/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// Create inserts a password or federated account with its starting balance.
func (r *UserRepositoryPG) Create(ctx context.Context, u domain.NewUser) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertUser,
		strings.TrimSpace(u.Email),
		u.PasswordHash,
		u.GoogleSub,
		strings.TrimSpace(u.DisplayName),
		u.Country,
		u.StartingTokens,
	)
	user, err := scanUser(row)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// UpsertGoogle creates a federated account or links the Google subject to an
// existing account with the same email. Linking drops the stored password, so
// an unverified registration of the same address stops working. Existing
// balances are left untouched.
func (r *UserRepositoryPG) UpsertGoogle(ctx context.Context, u domain.NewUser) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertGoogleUser,
		strings.TrimSpace(u.Email),
		u.GoogleSub,
		strings.TrimSpace(u.DisplayName),
		u.Country,
		u.StartingTokens,
	)
	return scanUser(row)
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id))
}

// GetByEmail fetches a user by case-insensitive email.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, strings.TrimSpace(email)))
}

// GetCredentials returns the stored password hash for an email.
func (r *UserRepositoryPG) GetCredentials(ctx context.Context, email string) (*domain.Credentials, error) {
	var c domain.Credentials
	err := r.sql.QueryRow(ctx, sqlinline.QSelectCredentialsByEmail, strings.TrimSpace(email)).
		Scan(&c.UserID, &c.Email, &c.PasswordHash)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *UserRepositoryPG) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateUserPassword, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepositoryPG) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateUserProfile, userID, update.DisplayName, update.Name, update.Occupation)
	return scanUser(row)
}

func (r *UserRepositoryPG) CompleteProfile(ctx context.Context, userID, name, occupation string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCompleteUserProfile, userID, name, occupation)
	return scanUser(row)
}

// GrantTokens atomically adds tokens to the balance and returns the new total.
func (r *UserRepositoryPG) GrantTokens(ctx context.Context, userID string, tokens int64) (int64, error) {
	var balance int64
	if err := r.sql.QueryRow(ctx, sqlinline.QAddUserTokens, userID, tokens).Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Delete removes the account; transcriptions, purchases and reset tokens cascade.
func (r *UserRepositoryPG) Delete(ctx context.Context, userID string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteUser, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.Name,
		&u.Occupation,
		&u.ProfileCompleted,
		&u.Tokens,
		&u.TotalTranscriptions,
		&u.WordsTranscribed,
		&u.GoogleSub,
		&u.Country,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
