package walletinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/jmoiron/sqlx"
)

// PostgresCashbackHistoryRepository implements wallet.CashbackHistoryRepository.
type PostgresCashbackHistoryRepository struct {
	db *sqlx.DB
}

func NewPostgresCashbackHistoryRepository(db *sqlx.DB) *PostgresCashbackHistoryRepository {
	return &PostgresCashbackHistoryRepository{db: db}
}

func (r *PostgresCashbackHistoryRepository) SaveCashbackHistory(ctx context.Context, h *wallet.CashbackHistory) error {
	query := `
		INSERT INTO cashback_histories (
			id, username, type, invest_amount, cashback, hash, status, date_start, date_end, created_at
		) VALUES (
			:id, :username, :type, :invest_amount, :cashback, :hash, :status, :date_start, :date_end, :created_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, h); err != nil {
		if isUniqueViolation(err) {
			return wallet.NewErrorWithCause(wallet.ErrDuplicateCashback, err).WithDetail("hash", h.Hash)
		}
		return errx.Wrap(err, "failed to save cashback history", errx.TypeInternal).
			WithDetail("hash", h.Hash)
	}
	return nil
}

func (r *PostgresCashbackHistoryRepository) GetCashbackHistoryByHash(ctx context.Context, hash string) (*wallet.CashbackHistory, error) {
	var h wallet.CashbackHistory
	if err := r.db.GetContext(ctx, &h, `SELECT * FROM cashback_histories WHERE hash = $1`, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errx.New("cashback history not found", errx.TypeNotFound).WithDetail("hash", hash)
		}
		return nil, errx.Wrap(err, "failed to find cashback history", errx.TypeInternal)
	}
	return &h, nil
}

func (r *PostgresCashbackHistoryRepository) UpdateCashbackStatus(ctx context.Context, hash string, status wallet.CashbackStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE cashback_histories SET status = $2 WHERE hash = $1`, hash, status); err != nil {
		return errx.Wrap(err, "failed to update cashback status", errx.TypeInternal).
			WithDetail("hash", hash)
	}
	return nil
}

// FindByUsername lists a customer's cashback history, newest first.
func (r *PostgresCashbackHistoryRepository) FindByUsername(ctx context.Context, username string) ([]wallet.CashbackHistory, error) {
	var out []wallet.CashbackHistory
	query := `SELECT * FROM cashback_histories WHERE username = $1 ORDER BY date_start DESC`
	if err := r.db.SelectContext(ctx, &out, query, username); err != nil {
		return nil, errx.Wrap(err, "failed to list cashback history", errx.TypeInternal)
	}
	return out, nil
}
