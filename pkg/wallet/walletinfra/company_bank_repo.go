package walletinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// PostgresCompanyBankRepository implements wallet.CompanyBankRepository.
// Increase and decrease are deltas applied by the database.
type PostgresCompanyBankRepository struct {
	db *sqlx.DB
}

func NewPostgresCompanyBankRepository(db *sqlx.DB) *PostgresCompanyBankRepository {
	return &PostgresCompanyBankRepository{db: db}
}

// UpdateBalance overwrites the balance with the figure reported by the bank.
func (r *PostgresCompanyBankRepository) UpdateBalance(ctx context.Context, bankAccountNumber string, balance decimal.Decimal) error {
	query := `UPDATE company_banks SET balance = $2, updated_at = NOW() WHERE bank_account_number = $1`
	result, err := r.db.ExecContext(ctx, query, bankAccountNumber, balance)
	if err != nil {
		return errx.Wrap(err, "failed to update company bank balance", errx.TypeInternal).
			WithDetail("bank_account_number", bankAccountNumber)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on balance update", errx.TypeInternal)
	}
	if rows == 0 {
		return wallet.NewError(wallet.ErrCompanyBankNotFound).WithDetail("bank_account_number", bankAccountNumber)
	}
	return nil
}

func (r *PostgresCompanyBankRepository) IncreaseBalance(ctx context.Context, bankAccountNumber string, amount decimal.Decimal) (*wallet.CompanyBank, error) {
	if amount.IsNegative() {
		return nil, wallet.NewErrorWithMessage(wallet.ErrInvalidRequest, "amount must not be negative").
			WithDetail("amount", amount.String())
	}
	return r.applyDelta(ctx, bankAccountNumber, amount)
}

func (r *PostgresCompanyBankRepository) DecreaseBalance(ctx context.Context, bankAccountNumber string, amount decimal.Decimal) (*wallet.CompanyBank, error) {
	if amount.IsNegative() {
		return nil, wallet.NewErrorWithMessage(wallet.ErrInvalidRequest, "amount must not be negative").
			WithDetail("amount", amount.String())
	}
	return r.applyDelta(ctx, bankAccountNumber, amount.Neg())
}

func (r *PostgresCompanyBankRepository) applyDelta(ctx context.Context, bankAccountNumber string, delta decimal.Decimal) (*wallet.CompanyBank, error) {
	var bank wallet.CompanyBank
	query := `
		UPDATE company_banks SET balance = balance + $2, updated_at = NOW()
		WHERE bank_account_number = $1
		RETURNING *`
	if err := r.db.GetContext(ctx, &bank, query, bankAccountNumber, delta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallet.NewError(wallet.ErrCompanyBankNotFound).WithDetail("bank_account_number", bankAccountNumber)
		}
		return nil, errx.Wrap(err, "failed to adjust company bank balance", errx.TypeInternal).
			WithDetail("bank_account_number", bankAccountNumber)
	}
	return &bank, nil
}

// Create inserts a company bank account.
func (r *PostgresCompanyBankRepository) Create(ctx context.Context, b wallet.CompanyBank) error {
	query := `
		INSERT INTO company_banks (id, bank_account_number, bank_code, balance, updated_at)
		VALUES (:id, :bank_account_number, :bank_code, :balance, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return errx.Wrap(err, "failed to create company bank", errx.TypeInternal).
			WithDetail("bank_account_number", b.BankAccountNumber)
	}
	return nil
}

func (r *PostgresCompanyBankRepository) FindByAccountNumber(ctx context.Context, bankAccountNumber string) (*wallet.CompanyBank, error) {
	var bank wallet.CompanyBank
	query := `SELECT * FROM company_banks WHERE bank_account_number = $1`
	if err := r.db.GetContext(ctx, &bank, query, bankAccountNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallet.NewError(wallet.ErrCompanyBankNotFound).WithDetail("bank_account_number", bankAccountNumber)
		}
		return nil, errx.Wrap(err, "failed to find company bank", errx.TypeInternal)
	}
	return &bank, nil
}
