package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"voxscribe/internal/domain"
	"voxscribe/internal/sqlinline"
)

func TestTranscriptionCreateWithDebit(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sql := newFakeSQL()
	sql.rows[sqlinline.QInsertTranscription] = func(args []any) pgx.Row {
		return valuesRow("tr-1", created)
	}
	sql.rows[sqlinline.QDebitUserTranscription] = func(args []any) pgx.Row {
		return valuesRow(int64(4970))
	}

	repo := NewTranscriptionRepository(sql)
	rec := &domain.Transcription{UserID: "user-1", Transcript: "hello world", PreviewText: "hello world"}
	balance, err := repo.CreateWithDebit(context.Background(), rec, 30)
	if err != nil {
		t.Fatalf("CreateWithDebit: %v", err)
	}
	if balance != 4970 {
		t.Fatalf("balance = %d, want 4970", balance)
	}
	if rec.ID != "tr-1" || !rec.CreatedAt.Equal(created) {
		t.Fatalf("record not filled: %+v", rec)
	}
	if sql.txs != 1 {
		t.Fatalf("expected one transaction, got %d", sql.txs)
	}
	debit := sql.called(sqlinline.QDebitUserTranscription)
	if debit == nil || !debit.inTx {
		t.Fatal("debit must run inside the transaction")
	}
	if debit.args[1] != int64(30) || debit.args[2] != int64(2) {
		t.Fatalf("debit args = %v", debit.args)
	}
}

func TestTranscriptionCreateWithDebitClampsNegative(t *testing.T) {
	sql := newFakeSQL()
	sql.rows[sqlinline.QInsertTranscription] = func([]any) pgx.Row { return valuesRow("tr-2", time.Now()) }
	sql.rows[sqlinline.QDebitUserTranscription] = func([]any) pgx.Row { return valuesRow(int64(100)) }

	repo := NewTranscriptionRepository(sql)
	if _, err := repo.CreateWithDebit(context.Background(), &domain.Transcription{UserID: "u"}, -5); err != nil {
		t.Fatalf("CreateWithDebit: %v", err)
	}
	if got := sql.called(sqlinline.QDebitUserTranscription).args[1]; got != int64(0) {
		t.Fatalf("debit = %v, want 0", got)
	}
}

func TestTranscriptionCreateWithDebitMissingUser(t *testing.T) {
	sql := newFakeSQL()
	sql.rows[sqlinline.QInsertTranscription] = func([]any) pgx.Row { return valuesRow("tr-3", time.Now()) }
	sql.rows[sqlinline.QDebitUserTranscription] = func([]any) pgx.Row { return errRow(pgx.ErrNoRows) }

	repo := NewTranscriptionRepository(sql)
	_, err := repo.CreateWithDebit(context.Background(), &domain.Transcription{UserID: "gone"}, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPurchaseApplyCreditFirstTime(t *testing.T) {
	sql := newFakeSQL()
	sql.rows[sqlinline.QMarkPurchaseCredited] = func([]any) pgx.Row { return valuesRow("user-1", int64(2500)) }
	sql.rows[sqlinline.QAddUserTokens] = func(args []any) pgx.Row {
		if args[1] != int64(2500) {
			t.Fatalf("credited %v tokens, want 2500", args[1])
		}
		return valuesRow(int64(7500))
	}

	repo := NewPurchaseRepository(sql)
	res, err := repo.ApplyCredit(context.Background(), &domain.Purchase{PaymentIntentID: "pi_1", UserID: "user-1", Tokens: 2500, AmountCents: 200, Currency: "usd"})
	if err != nil {
		t.Fatalf("ApplyCredit: %v", err)
	}
	if res.AlreadyApplied || res.TokensAdded != 2500 || res.Balance != 7500 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if sql.called(sqlinline.QInsertPurchase) == nil {
		t.Fatal("purchase row must be recorded before crediting")
	}
}

func TestPurchaseApplyCreditAlreadyApplied(t *testing.T) {
	sql := newFakeSQL()
	sql.rows[sqlinline.QMarkPurchaseCredited] = func([]any) pgx.Row { return errRow(pgx.ErrNoRows) }
	sql.rows[sqlinline.QSelectUserTokens] = func([]any) pgx.Row { return valuesRow(int64(7500)) }

	repo := NewPurchaseRepository(sql)
	res, err := repo.ApplyCredit(context.Background(), &domain.Purchase{PaymentIntentID: "pi_1", UserID: "user-1", Tokens: 2500})
	if err != nil {
		t.Fatalf("ApplyCredit: %v", err)
	}
	if !res.AlreadyApplied || res.TokensAdded != 0 || res.Balance != 7500 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if sql.called(sqlinline.QAddUserTokens) != nil {
		t.Fatal("balance must not be credited twice")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	sql := newFakeSQL()
	sql.rows[sqlinline.QInsertUser] = func([]any) pgx.Row {
		return errRow(&pgconn.PgError{Code: "23505"})
	}
	repo := NewUserRepository(sql)
	_, err := repo.Create(context.Background(), domain.NewUser{Email: "a@example.com"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	sql := newFakeSQL()
	sql.rows[sqlinline.QSelectUserByID] = func([]any) pgx.Row { return errRow(pgx.ErrNoRows) }
	repo := NewUserRepository(sql)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserDeleteMissing(t *testing.T) {
	sql := newFakeSQL()
	sql.execs[sqlinline.QDeleteUser] = func([]any) (pgconn.CommandTag, error) {
		return pgconn.NewCommandTag("DELETE 0"), nil
	}
	repo := NewUserRepository(sql)
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPasswordResetConsume(t *testing.T) {
	tests := []struct {
		name    string
		row     pgx.Row
		wantID  string
		wantErr error
	}{
		{name: "valid", row: valuesRow("user-1", true), wantID: "user-1"},
		{name: "expired", row: valuesRow("user-1", false), wantErr: domain.ErrResetTokenInvalid},
		{name: "unknown", row: errRow(pgx.ErrNoRows), wantErr: domain.ErrResetTokenInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql := newFakeSQL()
			sql.rows[sqlinline.QConsumePasswordReset] = func([]any) pgx.Row { return tc.row }
			repo := NewPasswordResetRepository(sql)
			id, err := repo.Consume(context.Background(), "hash")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil || id != tc.wantID {
				t.Fatalf("Consume() = (%q, %v)", id, err)
			}
		})
	}
}

func TestTranscriptionMalformedIDIsNotFound(t *testing.T) {
	invalid := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "nope"`}
	sql := newFakeSQL()
	sql.rows[sqlinline.QSelectTranscription] = func([]any) pgx.Row { return errRow(invalid) }
	sql.execs[sqlinline.QDeleteTranscription] = func([]any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, invalid
	}

	repo := NewTranscriptionRepository(sql)
	if _, err := repo.GetForUser(context.Background(), "user-1", "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetForUser: expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteForUser(context.Background(), "user-1", "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("DeleteForUser: expected ErrNotFound, got %v", err)
	}
}
