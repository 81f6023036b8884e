package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"voxscribe/internal/domain"
	"voxscribe/internal/infra"
	"voxscribe/internal/sqlinline"
)

// PurchaseRepositoryPG implements domain.PurchaseRepository using PostgreSQL.
type PurchaseRepositoryPG struct {
	sql infra.TxExecutor
}

// NewPurchaseRepository creates a new purchase repo.
func NewPurchaseRepository(sql infra.TxExecutor) *PurchaseRepositoryPG {
	return &PurchaseRepositoryPG{sql: sql}
}

// Create records a pending purchase. Recording the same payment intent twice is a no-op.
func (r *PurchaseRepositoryPG) Create(ctx context.Context, p *domain.Purchase) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertPurchase, p.PaymentIntentID, p.UserID, p.Tokens, p.AmountCents, p.Currency)
	return err
}

func (r *PurchaseRepositoryPG) Get(ctx context.Context, paymentIntentID string) (*domain.Purchase, error) {
	return scanPurchase(r.sql.QueryRow(ctx, sqlinline.QSelectPurchase, paymentIntentID))
}

func (r *PurchaseRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Purchase, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPurchases, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ApplyCredit turns a purchase into tokens exactly once. The purchase row is
// created when missing, flipped from pending to credited, and the tokens
// stored on that row are added to the owner's balance in the same
// transaction. A purchase that is already credited reports AlreadyApplied
// with the current balance.
func (r *PurchaseRepositoryPG) ApplyCredit(ctx context.Context, p *domain.Purchase) (*domain.CreditResult, error) {
	result := &domain.CreditResult{PaymentIntentID: p.PaymentIntentID, UserID: p.UserID}
	err := r.sql.WithTx(ctx, func(tx infra.SQLExecutor) error {
		if _, err := tx.Exec(ctx, sqlinline.QInsertPurchase, p.PaymentIntentID, p.UserID, p.Tokens, p.AmountCents, p.Currency); err != nil {
			return fmt.Errorf("record purchase: %w", err)
		}

		var owner string
		var tokens int64
		err := tx.QueryRow(ctx, sqlinline.QMarkPurchaseCredited, p.PaymentIntentID).Scan(&owner, &tokens)
		switch {
		case infra.IsNoRows(err):
			result.AlreadyApplied = true
			if err := tx.QueryRow(ctx, sqlinline.QSelectUserTokens, p.UserID).Scan(&result.Balance); err != nil {
				if infra.IsNoRows(err) {
					return domain.ErrNotFound
				}
				return fmt.Errorf("load balance: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("mark purchase credited: %w", err)
		}

		result.UserID = owner
		result.TokensAdded = tokens
		if err := tx.QueryRow(ctx, sqlinline.QAddUserTokens, owner, tokens).Scan(&result.Balance); err != nil {
			if infra.IsNoRows(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("credit balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var p domain.Purchase
	var status string
	if err := row.Scan(&p.PaymentIntentID, &p.UserID, &p.Tokens, &p.AmountCents, &p.Currency, &status, &p.CreatedAt, &p.CreditedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Status = domain.PurchaseStatus(status)
	return &p, nil
}

var _ domain.PurchaseRepository = (*PurchaseRepositoryPG)(nil)
