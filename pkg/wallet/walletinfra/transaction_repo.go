package walletinfra

import (
	"context"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/jmoiron/sqlx"
)

// PostgresTransactionRepository implements wallet.TransactionRepository.
type PostgresTransactionRepository struct {
	db *sqlx.DB
}

func NewPostgresTransactionRepository(db *sqlx.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) SaveTransaction(ctx context.Context, tx *wallet.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, hash, status, transaction_type, mobile_number,
			payer_bank_account_number, recipient_bank_account_number, recipient_bank_name,
			amount, bank_transaction_id, notes, transaction_at, created_at
		) VALUES (
			:id, :hash, :status, :transaction_type, :mobile_number,
			:payer_bank_account_number, :recipient_bank_account_number, :recipient_bank_name,
			:amount, :bank_transaction_id, :notes, :transaction_at, NOW()
		)`
	if _, err := r.db.NamedExecContext(ctx, query, tx); err != nil {
		if isUniqueViolation(err) {
			return errx.Wrap(err, "transaction hash already recorded", errx.TypeConflict).
				WithDetail("hash", tx.Hash)
		}
		return errx.Wrap(err, "failed to save transaction", errx.TypeInternal).
			WithDetail("hash", tx.Hash)
	}
	return nil
}

func (r *PostgresTransactionRepository) FindByHash(ctx context.Context, hash string) (*wallet.Transaction, error) {
	var tx wallet.Transaction
	if err := r.db.GetContext(ctx, &tx, `SELECT * FROM transactions WHERE hash = $1`, hash); err != nil {
		return nil, errx.Wrap(err, "failed to find transaction", errx.TypeNotFound).WithDetail("hash", hash)
	}
	return &tx, nil
}
