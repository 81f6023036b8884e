package repo

import (
	"context"

	"voxscribe/internal/domain"
	"voxscribe/internal/infra"
	"voxscribe/internal/sqlinline"
)

// PasswordResetRepositoryPG stores hashed reset tokens.
type PasswordResetRepositoryPG struct {
	sql infra.TxExecutor
}

func NewPasswordResetRepository(sql infra.TxExecutor) *PasswordResetRepositoryPG {
	return &PasswordResetRepositoryPG{sql: sql}
}

// Create replaces any outstanding token for the user.
func (r *PasswordResetRepositoryPG) Create(ctx context.Context, userID, tokenHash string, ttlSeconds int) error {
	return r.sql.WithTx(ctx, func(tx infra.SQLExecutor) error {
		if _, err := tx.Exec(ctx, sqlinline.QDeletePasswordResetsForUser, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, sqlinline.QInsertPasswordReset, tokenHash, userID, ttlSeconds)
		return err
	})
}

// Consume deletes the token and returns its owner. Unknown and expired tokens
// both yield domain.ErrResetTokenInvalid.
func (r *PasswordResetRepositoryPG) Consume(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	var valid bool
	if err := r.sql.QueryRow(ctx, sqlinline.QConsumePasswordReset, tokenHash).Scan(&userID, &valid); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrResetTokenInvalid
		}
		return "", err
	}
	if !valid {
		return "", domain.ErrResetTokenInvalid
	}
	return userID, nil
}

var _ domain.PasswordResetRepository = (*PasswordResetRepositoryPG)(nil)
