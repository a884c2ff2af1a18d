package wallet

import (
	"context"

	"github.com/Abraxas-365/rewardwallet/pkg/kernel"
	"github.com/shopspring/decimal"
)

// WalletClient talks to the external Wallet Service.
type WalletClient interface {
	Deposit(ctx context.Context, username string, amount decimal.Decimal, hash string) (*WalletTransfer, error)
	Withdraw(ctx context.Context, username string, amount decimal.Decimal, hash string) (*WalletTransfer, error)
	Balance(ctx context.Context, username string) (*WalletBalance, error)
	CreateWallet(ctx context.Context, username string) (*WalletAccount, error)
	SummaryReport(ctx context.Context, q SummaryReportQuery) (*SummaryReport, error)
}

// BankingClient talks to the external Banking Transfer Service.
type BankingClient interface {
	Withdraw(ctx context.Context, req BankWithdrawRequest) (*BankWithdrawResult, error)
}

// CustomerRepository holds customer bookkeeping. Balance changes are atomic
// increments at the store.
type CustomerRepository interface {
	MarkLastDepositAndIncreaseTotal(ctx context.Context, mobileNumber string, amount decimal.Decimal) error
	FindAllActive(ctx context.Context) ([]Customer, error)
}

// CompanyBankRepository holds company bank balances.
type CompanyBankRepository interface {
	UpdateBalance(ctx context.Context, bankAccountNumber string, balance decimal.Decimal) error
	IncreaseBalance(ctx context.Context, bankAccountNumber string, amount decimal.Decimal) (*CompanyBank, error)
	DecreaseBalance(ctx context.Context, bankAccountNumber string, amount decimal.Decimal) (*CompanyBank, error)
}

// TransactionRepository is the ledger.
type TransactionRepository interface {
	SaveTransaction(ctx context.Context, tx *Transaction) error
}

// JobEventRepository stores dead-letter records.
type JobEventRepository interface {
	// SaveJobEventFailed inserts ev unless a record for the same job id
	// exists. It reports whether a row was inserted.
	SaveJobEventFailed(ctx context.Context, ev *JobEvent) (bool, error)
	GetJobEvent(ctx context.Context, id string) (*JobEvent, error)
	ListJobEvents(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[JobEvent], error)
}

// CashbackHistoryRepository stores paid cashback periods, unique by hash.
type CashbackHistoryRepository interface {
	// SaveCashbackHistory fails with ErrDuplicateCashback when the hash exists.
	SaveCashbackHistory(ctx context.Context, h *CashbackHistory) error
	GetCashbackHistoryByHash(ctx context.Context, hash string) (*CashbackHistory, error)
	UpdateCashbackStatus(ctx context.Context, hash string, status CashbackStatus) error
}

// ProcessedLedger remembers which money movements already completed, so a
// redelivered job does not repeat external calls.
type ProcessedLedger interface {
	IsProcessed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string) error
}

// ProcessedKey is the ledger key of a movement.
func ProcessedKey(action Action, hash string) string {
	return string(action) + ":" + hash
}
