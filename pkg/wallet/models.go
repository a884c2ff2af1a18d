package wallet

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DepositRequest credits a customer's wallet.
type DepositRequest struct {
	Username string          `json:"username"`
	Amount   decimal.Decimal `json:"amount"`
	Hash     string          `json:"hash"`
}

// WithdrawRequest debits a customer's wallet.
type WithdrawRequest struct {
	Username string          `json:"username"`
	Amount   decimal.Decimal `json:"amount"`
	Hash     string          `json:"hash"`
}

// WithdrawAndWaiveRequest reverses a customer deposit: the wallet is debited
// and the amount is transferred back out of the company bank account.
type WithdrawAndWaiveRequest struct {
	Username    string          `json:"username"`
	Amount      decimal.Decimal `json:"amount"`
	Hash        string          `json:"hash"`
	FromAccount string          `json:"fromAccount"`
	AccountTo   string          `json:"accountTo"`
	BankCode    string          `json:"bankCode"`
}

// Validate checks the fields shared by every request.
func validate(username string, amount decimal.Decimal, hash string) error {
	switch {
	case username == "":
		return walletErrors.New(ErrInvalidRequest).WithDetail("reason", "username is required")
	case !amount.IsPositive():
		return walletErrors.New(ErrInvalidRequest).WithDetail("reason", "amount must be positive").WithDetail("amount", amount.String())
	case hash == "":
		return walletErrors.New(ErrInvalidRequest).WithDetail("reason", "hash is required")
	}
	return nil
}

func (r DepositRequest) Validate() error  { return validate(r.Username, r.Amount, r.Hash) }
func (r WithdrawRequest) Validate() error { return validate(r.Username, r.Amount, r.Hash) }

func (r WithdrawAndWaiveRequest) Validate() error {
	if err := validate(r.Username, r.Amount, r.Hash); err != nil {
		return err
	}
	if r.FromAccount == "" || r.AccountTo == "" || r.BankCode == "" {
		return walletErrors.New(ErrInvalidRequest).WithDetail("reason", "fromAccount, accountTo and bankCode are required")
	}
	return nil
}

// WalletTransfer is the Wallet Service reply to a deposit or withdraw.
type WalletTransfer struct {
	Username      string          `json:"username"`
	BeforeBalance decimal.Decimal `json:"beforeBalance"`
	AfterBalance  decimal.Decimal `json:"afterBalance"`
	TnID          string          `json:"tnId"`
}

// WalletBalance is the Wallet Service balance reply.
type WalletBalance struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// WalletAccount is the Wallet Service reply to account creation.
type WalletAccount struct {
	Username        string `json:"username"`
	FundingUsername string `json:"fundingUsername"`
}

// SummaryReportQuery selects a reporting period. Empty dates mean the
// current month.
type SummaryReportQuery struct {
	Username  string
	DateStart string
	DateEnd   string
	Type      string
}

// SummaryReport is the per-customer period summary. A negative Cashback is
// owed to the customer.
type SummaryReport struct {
	Username     string          `json:"username"`
	Type         string          `json:"type"`
	InvestAmount decimal.Decimal `json:"investAmount"`
	Cashback     decimal.Decimal `json:"cashback"`
}

// BankWithdrawRequest moves money out of a company bank account.
type BankWithdrawRequest struct {
	FromAccount string          `json:"fromAccount"`
	AccountTo   string          `json:"accountTo"`
	BankCode    string          `json:"bankCode"`
	Amount      decimal.Decimal `json:"amount"`
}

// BankWithdrawResult is the Banking Transfer Service reply.
type BankWithdrawResult struct {
	TransactionID       string          `json:"transactionId"`
	TransactionDateTime time.Time       `json:"transactionDateTime"`
	RemainingBalance    decimal.Decimal `json:"remainingBalance"`
	QRString            string          `json:"QRString"`
}

// TransactionType classifies ledger records.
type TransactionType string

const (
	TransactionDeposit         TransactionType = "deposit"
	TransactionWithdraw        TransactionType = "withdraw"
	TransactionRequestWithdraw TransactionType = "request_withdraw"
)

// TransactionStatus is the outcome recorded on a ledger record.
type TransactionStatus string

const (
	TransactionSuccess      TransactionStatus = "success"
	TransactionNotFound     TransactionStatus = "not_found"
	TransactionCancel       TransactionStatus = "cancel"
	TransactionFailedToSave TransactionStatus = "failed_to_save"
)

// Transaction is a ledger record.
type Transaction struct {
	ID                         string            `db:"id" json:"id"`
	Hash                       string            `db:"hash" json:"hash"`
	Status                     TransactionStatus `db:"status" json:"status"`
	Type                       TransactionType   `db:"transaction_type" json:"transaction_type"`
	MobileNumber               string            `db:"mobile_number" json:"mobile_number"`
	PayerBankAccountNumber     string            `db:"payer_bank_account_number" json:"payer_bank_account_number"`
	RecipientBankAccountNumber string            `db:"recipient_bank_account_number" json:"recipient_bank_account_number"`
	RecipientBankName          string            `db:"recipient_bank_name" json:"recipient_bank_name"`
	Amount                     decimal.Decimal   `db:"amount" json:"amount"`
	BankTransactionID          string            `db:"bank_transaction_id" json:"bank_transaction_id"`
	Notes                      string            `db:"notes" json:"notes"`
	TransactionAt              time.Time         `db:"transaction_at" json:"transaction_at"`
	CreatedAt                  time.Time         `db:"created_at" json:"created_at"`
}

// Customer is the local customer aggregate touched by sagas.
type Customer struct {
	ID                 string          `db:"id" json:"id"`
	MobileNumber       string          `db:"mobile_number" json:"mobile_number"`
	BankAccountNumber  string          `db:"bank_account_number" json:"bank_account_number"`
	Active             bool            `db:"active" json:"active"`
	Credit             decimal.Decimal `db:"credit" json:"credit"`
	LastDepositAmount  decimal.Decimal `db:"last_deposit_amount" json:"last_deposit_amount"`
	TotalDepositAmount decimal.Decimal `db:"total_deposit_amount" json:"total_deposit_amount"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// CompanyBank is a company-owned bank account.
type CompanyBank struct {
	ID                string          `db:"id" json:"id"`
	BankAccountNumber string          `db:"bank_account_number" json:"bank_account_number"`
	BankCode          string          `db:"bank_code" json:"bank_code"`
	Balance           decimal.Decimal `db:"balance" json:"balance"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// CashbackStatus marks the outcome of one customer's cashback.
type CashbackStatus string

const (
	CashbackSuccess CashbackStatus = "success"
	CashbackCancel  CashbackStatus = "cancel"
	// CashbackCheck means the history was recorded but the deposit job could
	// not be enqueued; the next run retries it.
	CashbackCheck CashbackStatus = "check"
)

// CashbackHistory records a cashback paid for one period.
type CashbackHistory struct {
	ID           string          `db:"id" json:"id"`
	Username     string          `db:"username" json:"username"`
	Type         string          `db:"type" json:"type"`
	InvestAmount decimal.Decimal `db:"invest_amount" json:"invest_amount"`
	Cashback     decimal.Decimal `db:"cashback" json:"cashback"`
	Hash         string          `db:"hash" json:"hash"`
	Status       CashbackStatus  `db:"status" json:"status"`
	DateStart    string          `db:"date_start" json:"date_start"`
	DateEnd      string          `db:"date_end" json:"date_end"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// JobEvent is the dead-letter snapshot of a job that failed for good.
type JobEvent struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id"`
	Name         string          `json:"name"`
	Queue        string          `json:"queue"`
	FailedReason string          `json:"failed_reason"`
	AttemptsMade int             `json:"attempts_made"`
	MaxAttempts  int             `json:"max_attempts"`
	Priority     int             `json:"priority"`
	Delay        time.Duration   `json:"delay"`
	Data         json.RawMessage `json:"data"`
	Stacktrace   []string        `json:"stacktrace"`
	EnqueuedAt   time.Time       `json:"enqueued_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
