package walletsrv

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/rewardwallet/pkg/alertx"
	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/google/uuid"
)

// Processor runs wallet sagas for jobs claimed by a jobx worker.
type Processor struct {
	wallets      wallet.WalletClient
	banking      wallet.BankingClient
	customers    wallet.CustomerRepository
	companyBanks wallet.CompanyBankRepository
	transactions wallet.TransactionRepository
	alerter      alertx.Alerter
	ledger       wallet.ProcessedLedger
	hasher       *wallet.Hasher
	logger       *logx.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLedger skips sagas whose hash already completed.
func WithLedger(l wallet.ProcessedLedger) ProcessorOption {
	return func(p *Processor) { p.ledger = l }
}

// WithHasher sets the hasher used for fresh leg and recovery hashes.
func WithHasher(h *wallet.Hasher) ProcessorOption {
	return func(p *Processor) { p.hasher = h }
}

// WithProcessorLogger replaces the default logger.
func WithProcessorLogger(l *logx.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

func NewProcessor(
	wallets wallet.WalletClient,
	banking wallet.BankingClient,
	customers wallet.CustomerRepository,
	companyBanks wallet.CompanyBankRepository,
	transactions wallet.TransactionRepository,
	alerter alertx.Alerter,
	opts ...ProcessorOption,
) *Processor {
	p := &Processor{
		wallets:      wallets,
		banking:      banking,
		customers:    customers,
		companyBanks: companyBanks,
		transactions: transactions,
		alerter:      alerter,
		hasher:       wallet.NewHasher(""),
		logger:       logx.GetDefaultLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Register binds every action, and the fallback for unknown names, on c.
func (p *Processor) Register(c *jobx.Client) {
	for _, a := range wallet.Actions() {
		c.Register(string(a), p.Handle)
	}
	c.HandleDefault(p.Handle)
}

// Handle is the jobx handler for every wallet action.
func (p *Processor) Handle(ctx context.Context, job *jobx.Job) error {
	action, err := wallet.ParseAction(job.Name)
	if err != nil {
		p.logger.WithFields(logx.Fields{"job_id": job.ID, "job_name": job.Name}).
			Errorf("wallet/processor: job type %q not supported", job.Name)
		return jobx.Unrecoverable(err)
	}

	var (
		hash string
		run  func(context.Context) (*Outcome, error)
	)
	switch action {
	case wallet.ActionDeposit:
		var req wallet.DepositRequest
		if err := decodeRequest(job, &req); err != nil {
			return err
		}
		hash = req.Hash
		run = func(ctx context.Context) (*Outcome, error) { return p.Deposit(ctx, job, req) }
	case wallet.ActionWithdraw:
		var req wallet.WithdrawRequest
		if err := decodeRequest(job, &req); err != nil {
			return err
		}
		hash = req.Hash
		run = func(ctx context.Context) (*Outcome, error) { return p.Withdraw(ctx, job, req) }
	case wallet.ActionWithdrawAndWaive:
		var req wallet.WithdrawAndWaiveRequest
		if err := decodeRequest(job, &req); err != nil {
			return err
		}
		hash = req.Hash
		run = func(ctx context.Context) (*Outcome, error) { return p.WithdrawAndWaive(ctx, job, req) }
	default:
		panic(fmt.Sprintf("wallet/processor: unhandled action %q", action))
	}

	key := wallet.ProcessedKey(action, hash)
	if p.ledger != nil {
		done, err := p.ledger.IsProcessed(ctx, key)
		if err != nil {
			return err
		}
		if done {
			p.logger.WithFields(logx.Fields{"job_id": job.ID, "job_name": job.Name, "hash": hash}).
				Info("wallet/processor: hash already processed, skipping external calls")
			return job.SetResult(&Outcome{Action: action, Hash: hash, Replayed: true})
		}
	}

	out, err := run(ctx)
	if err != nil {
		return err
	}

	if p.ledger != nil {
		if err := p.ledger.MarkProcessed(ctx, key); err != nil {
			p.logger.WithError(err).WithFields(logx.Fields{"job_id": job.ID, "hash": hash}).
				Warn("wallet/processor: failed to mark hash processed")
		}
	}
	return job.SetResult(out)
}

type validator interface{ Validate() error }

func decodeRequest(job *jobx.Job, req validator) error {
	if err := job.Decode(req); err != nil {
		return jobx.Unrecoverable(err)
	}
	if err := req.Validate(); err != nil {
		return jobx.Unrecoverable(err)
	}
	return nil
}

// Deposit credits the wallet, then records the deposit on the customer.
func (p *Processor) Deposit(ctx context.Context, job *jobx.Job, req wallet.DepositRequest) (*Outcome, error) {
	s := newSaga(job, wallet.ActionDeposit, req.Username, req.Amount, req.Hash)

	transfer, err := p.wallets.Deposit(ctx, req.Username, req.Amount, req.Hash)
	if err != nil {
		return nil, p.abort(ctx, s, s.fail(wallet.StateWalletDeposit, err))
	}
	s.advance(wallet.StateWalletDeposit)

	if err := p.customers.MarkLastDepositAndIncreaseTotal(ctx, req.Username, req.Amount); err != nil {
		return nil, p.abort(ctx, s, s.fail(wallet.StateCustomerUpdateLastDeposit, err))
	}
	s.advance(wallet.StateCustomerUpdateLastDeposit)

	return &Outcome{Action: s.action, Hash: s.hash, State: s.state, Wallet: transfer}, nil
}

// Withdraw debits the wallet after checking the balance covers it.
func (p *Processor) Withdraw(ctx context.Context, job *jobx.Job, req wallet.WithdrawRequest) (*Outcome, error) {
	s := newSaga(job, wallet.ActionWithdraw, req.Username, req.Amount, req.Hash)

	if err := p.ensureBalance(ctx, s); err != nil {
		return nil, err
	}

	transfer, err := p.wallets.Withdraw(ctx, req.Username, req.Amount, req.Hash)
	if err != nil {
		return nil, p.abort(ctx, s, s.fail(wallet.StateWalletWithdraw, err))
	}
	s.advance(wallet.StateWalletWithdraw)

	return &Outcome{Action: s.action, Hash: s.hash, State: s.state, Wallet: transfer}, nil
}

// WithdrawAndWaive debits the wallet, transfers the amount out of the company
// bank account, books the remaining balance and records the ledger entry.
func (p *Processor) WithdrawAndWaive(ctx context.Context, job *jobx.Job, req wallet.WithdrawAndWaiveRequest) (*Outcome, error) {
	legHash, _ := p.hasher.Transaction(req.AccountTo, req.Username, req.Amount)
	s := newSaga(job, wallet.ActionWithdrawAndWaive, req.Username, req.Amount, legHash)
	s.account = req.AccountTo

	if err := p.ensureBalance(ctx, s); err != nil {
		return nil, err
	}

	transfer, err := p.wallets.Withdraw(ctx, req.Username, req.Amount, legHash)
	if err != nil {
		return nil, p.abort(ctx, s, s.fail(wallet.StateWalletWithdraw, err))
	}
	s.advance(wallet.StateWalletWithdraw)

	bank, err := p.banking.Withdraw(ctx, wallet.BankWithdrawRequest{
		FromAccount: req.FromAccount,
		AccountTo:   req.AccountTo,
		BankCode:    req.BankCode,
		Amount:      req.Amount,
	})
	if err != nil {
		return nil, p.abort(ctx, s, s.fail(wallet.StateBankWithdraw, err))
	}
	s.advance(wallet.StateBankWithdraw)

	if err := p.companyBanks.UpdateBalance(ctx, req.FromAccount, bank.RemainingBalance); err != nil {
		return nil, p.abort(ctx, s, s.fail(wallet.StateCompanyUpdateBalance, err).
			WithDetail("remaining_balance", bank.RemainingBalance.String()).
			WithDetail("bank_transaction_id", bank.TransactionID))
	}
	s.advance(wallet.StateCompanyUpdateBalance)

	tx := &wallet.Transaction{
		ID:                         uuid.NewString(),
		Hash:                       legHash,
		Status:                     wallet.TransactionSuccess,
		Type:                       wallet.TransactionWithdraw,
		MobileNumber:               req.Username,
		PayerBankAccountNumber:     req.FromAccount,
		RecipientBankAccountNumber: req.AccountTo,
		RecipientBankName:          req.BankCode,
		Amount:                     req.Amount,
		BankTransactionID:          bank.TransactionID,
		Notes:                      fmt.Sprintf("waive of %s, remaining balance %s", req.Hash, bank.RemainingBalance),
		TransactionAt:              bank.TransactionDateTime,
	}
	if err := p.transactions.SaveTransaction(ctx, tx); err != nil {
		return nil, p.abort(ctx, s, s.fail(wallet.StateTransactionCreated, err))
	}
	s.advance(wallet.StateTransactionCreated)

	return &Outcome{Action: s.action, Hash: s.hash, State: s.state, Wallet: transfer, Bank: bank, Transaction: tx}, nil
}

func (p *Processor) ensureBalance(ctx context.Context, s *saga) error {
	bal, err := p.wallets.Balance(ctx, s.username)
	if err != nil {
		return p.abort(ctx, s, s.fail(wallet.StateWalletWithdraw, err))
	}
	if bal.Balance.LessThan(s.amount) {
		e := wallet.NewError(wallet.ErrInsufficientBalance).
			WithDetails(s.fields()).
			WithDetail("balance", bal.Balance.String())
		p.logger.WithFields(logx.Fields(e.Details)).Warn("wallet/processor: insufficient balance, nothing mutated")
		return jobx.Unrecoverable(e)
	}
	return nil
}

// abort runs the compensation for the saga cursor and returns the error the
// worker should see. Failures after the bank transfer, and failed
// compensations, are not retried.
func (p *Processor) abort(ctx context.Context, s *saga, stepErr *errx.Error) error {
	p.logger.WithError(stepErr).WithFields(logx.Fields(stepErr.Details)).Error("wallet/processor: saga step failed")

	comp := CompensationFor(s.action, s.state)
	if comp.Reconcile {
		p.alerter.Raise(ctx, alertx.Alert{
			Class:   alertx.ClassManualReconciliation,
			Summary: fmt.Sprintf("%s: bank transfer succeeded but company balance was not updated", s.action),
			JobID:   s.jobID(),
			JobName: string(s.action),
			Hash:    s.hash,
			Fields:  stepErr.Details,
			Err:     stepErr,
		})
	}

	if compErr := p.compensate(ctx, s, comp); compErr != nil {
		stepErr.WithDetail("compensation", string(comp.Kind)).WithDetail("compensation_error", compErr.Error())
		p.alerter.Raise(ctx, alertx.Alert{
			Class:   alertx.ClassCompensationFailed,
			Summary: fmt.Sprintf("%s: %s compensation failed, wallet balance diverges", s.action, comp.Kind),
			JobID:   s.jobID(),
			JobName: string(s.action),
			Hash:    s.hash,
			Fields:  stepErr.Details,
			Err:     compErr,
		})
		return jobx.Unrecoverable(stepErr)
	}

	if !Retryable(s.action, s.state) {
		return jobx.Unrecoverable(stepErr)
	}
	return stepErr
}

func (p *Processor) compensate(ctx context.Context, s *saga, comp Compensation) error {
	if comp.Kind == CompensateNone {
		return nil
	}

	hash := s.hash
	if !comp.ReuseHash {
		hash, _ = p.hasher.Transaction(s.account, s.username, s.amount)
	}
	log := p.logger.WithFields(logx.Fields{
		"job_name":     string(s.action),
		"state":        string(s.state),
		"compensation": string(comp.Kind),
		"hash":         hash,
	})

	var err error
	switch comp.Kind {
	case CompensateWalletWithdraw:
		_, err = p.wallets.Withdraw(ctx, s.username, s.amount, hash)
	case CompensateWalletDeposit:
		_, err = p.wallets.Deposit(ctx, s.username, s.amount, hash)
	}
	if err != nil {
		log.WithError(err).Error("wallet/processor: compensation failed")
		return err
	}
	log.Info("wallet/processor: compensation applied")
	return nil
}
