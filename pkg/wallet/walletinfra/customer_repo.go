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

// PostgresCustomerRepository implements wallet.CustomerRepository.
type PostgresCustomerRepository struct {
	db *sqlx.DB
}

func NewPostgresCustomerRepository(db *sqlx.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

// MarkLastDepositAndIncreaseTotal sets the last deposit and adds it to the
// running total in one statement.
func (r *PostgresCustomerRepository) MarkLastDepositAndIncreaseTotal(ctx context.Context, mobileNumber string, amount decimal.Decimal) error {
	query := `
		UPDATE customers SET
			last_deposit_amount = $2,
			total_deposit_amount = total_deposit_amount + $2,
			updated_at = NOW()
		WHERE mobile_number = $1`

	result, err := r.db.ExecContext(ctx, query, mobileNumber, amount)
	if err != nil {
		return errx.Wrap(err, "failed to mark last deposit", errx.TypeInternal).
			WithDetail("mobile_number", mobileNumber)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on deposit mark", errx.TypeInternal)
	}
	if rows == 0 {
		return wallet.NewError(wallet.ErrCustomerNotFound).WithDetail("mobile_number", mobileNumber)
	}
	return nil
}

func (r *PostgresCustomerRepository) FindAllActive(ctx context.Context) ([]wallet.Customer, error) {
	var customers []wallet.Customer
	query := `SELECT * FROM customers WHERE active ORDER BY mobile_number`
	if err := r.db.SelectContext(ctx, &customers, query); err != nil {
		return nil, errx.Wrap(err, "failed to list active customers", errx.TypeInternal)
	}
	return customers, nil
}

// Create inserts a customer. Used by operators and tests.
func (r *PostgresCustomerRepository) Create(ctx context.Context, c wallet.Customer) error {
	query := `
		INSERT INTO customers (
			id, mobile_number, bank_account_number, active, credit,
			last_deposit_amount, total_deposit_amount, updated_at
		) VALUES (
			:id, :mobile_number, :bank_account_number, :active, :credit,
			:last_deposit_amount, :total_deposit_amount, :updated_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return errx.Wrap(err, "failed to create customer", errx.TypeInternal).
			WithDetail("mobile_number", c.MobileNumber)
	}
	return nil
}

func (r *PostgresCustomerRepository) FindByMobileNumber(ctx context.Context, mobileNumber string) (*wallet.Customer, error) {
	var c wallet.Customer
	query := `SELECT * FROM customers WHERE mobile_number = $1`
	if err := r.db.GetContext(ctx, &c, query, mobileNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallet.NewError(wallet.ErrCustomerNotFound).WithDetail("mobile_number", mobileNumber)
		}
		return nil, errx.Wrap(err, "failed to find customer", errx.TypeInternal)
	}
	return &c, nil
}
