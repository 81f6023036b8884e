package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"voxscribe/internal/domain"
	"voxscribe/internal/infra"
	"voxscribe/internal/sqlinline"
)

// TranscriptionRepositoryPG implements domain.TranscriptionRepository.
type TranscriptionRepositoryPG struct {
	sql infra.TxExecutor
}

func NewTranscriptionRepository(sql infra.TxExecutor) *TranscriptionRepositoryPG {
	return &TranscriptionRepositoryPG{sql: sql}
}

// CreateWithDebit inserts the record and applies the balance change in one
// transaction. t.ID and t.CreatedAt are filled from the database.
func (r *TranscriptionRepositoryPG) CreateWithDebit(ctx context.Context, t *domain.Transcription, debit int64) (int64, error) {
	if debit < 0 {
		debit = 0
	}
	var balance int64
	err := r.sql.WithTx(ctx, func(tx infra.SQLExecutor) error {
		row := tx.QueryRow(ctx, sqlinline.QInsertTranscription,
			t.UserID,
			t.Transcript,
			t.PreviewText,
			t.FileName,
			t.StorageKey,
			t.MediaType,
			t.MediaBytes,
			t.MediaChecksum,
		)
		if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
			return fmt.Errorf("insert transcription: %w", err)
		}
		words := domain.WordCount(t.Transcript)
		if err := tx.QueryRow(ctx, sqlinline.QDebitUserTranscription, t.UserID, debit, words).Scan(&balance); err != nil {
			if infra.IsNoRows(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("debit balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *TranscriptionRepositoryPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transcription, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListTranscriptions, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Transcription, 0)
	for rows.Next() {
		t, err := scanTranscription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *TranscriptionRepositoryPG) GetForUser(ctx context.Context, userID, id string) (*domain.Transcription, error) {
	return scanTranscription(r.sql.QueryRow(ctx, sqlinline.QSelectTranscription, id, userID))
}

func (r *TranscriptionRepositoryPG) DeleteForUser(ctx context.Context, userID, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteTranscription, id, userID)
	if err != nil {
		if infra.IsInvalidText(err) {
			return domain.ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTranscription(row pgx.Row) (*domain.Transcription, error) {
	var t domain.Transcription
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Transcript,
		&t.PreviewText,
		&t.FileName,
		&t.StorageKey,
		&t.MediaType,
		&t.MediaBytes,
		&t.MediaChecksum,
		&t.CreatedAt,
	); err != nil {
		if infra.IsNoRows(err) || infra.IsInvalidText(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

var _ domain.TranscriptionRepository = (*TranscriptionRepositoryPG)(nil)
