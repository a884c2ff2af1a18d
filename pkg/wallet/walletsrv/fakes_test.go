package walletsrv_test

import (
	"context"
	"errors"
	"sync"

	"github.com/Abraxas-365/rewardwallet/pkg/alertx"
	"github.com/Abraxas-365/rewardwallet/pkg/kernel"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/shopspring/decimal"
)

type walletCall struct {
	Op       string
	Username string
	Amount   decimal.Decimal
	Hash     string
}

type fakeWallet struct {
	mu          sync.Mutex
	calls       []walletCall
	balance     decimal.Decimal
	depositErr  []error
	withdrawErr []error
	balanceErr  error
	summaries   map[string]*wallet.SummaryReport
	summaryErr  map[string]error
	queries     []wallet.SummaryReportQuery
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{balance: decimal.NewFromInt(1_000_000)}
}

// pop returns the next scripted error for an operation.
func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakeWallet) Deposit(_ context.Context, username string, amount decimal.Decimal, hash string) (*wallet.WalletTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, walletCall{"deposit", username, amount, hash})
	if err := pop(&f.depositErr); err != nil {
		return nil, err
	}
	return &wallet.WalletTransfer{Username: username, AfterBalance: amount, TnID: "tn-" + hash}, nil
}

func (f *fakeWallet) Withdraw(_ context.Context, username string, amount decimal.Decimal, hash string) (*wallet.WalletTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, walletCall{"withdraw", username, amount, hash})
	if err := pop(&f.withdrawErr); err != nil {
		return nil, err
	}
	return &wallet.WalletTransfer{Username: username, TnID: "tn-" + hash}, nil
}

func (f *fakeWallet) Balance(_ context.Context, username string) (*wallet.WalletBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &wallet.WalletBalance{Username: username, Balance: f.balance}, nil
}

func (f *fakeWallet) CreateWallet(_ context.Context, username string) (*wallet.WalletAccount, error) {
	return &wallet.WalletAccount{Username: username}, nil
}

func (f *fakeWallet) SummaryReport(_ context.Context, q wallet.SummaryReportQuery) (*wallet.SummaryReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.summaryErr[q.Username]; err != nil {
		return nil, err
	}
	if s, ok := f.summaries[q.Username]; ok {
		return s, nil
	}
	return &wallet.SummaryReport{Username: q.Username, Cashback: decimal.Zero}, nil
}

func (f *fakeWallet) callsOf(op string) []walletCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []walletCall
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeWallet) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeBank struct {
	mu        sync.Mutex
	requests  []wallet.BankWithdrawRequest
	err       error
	remaining decimal.Decimal
}

func (f *fakeBank) Withdraw(_ context.Context, req wallet.BankWithdrawRequest) (*wallet.BankWithdrawResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &wallet.BankWithdrawResult{TransactionID: "bank-1", RemainingBalance: f.remaining}, nil
}

type fakeCustomers struct {
	mu        sync.Mutex
	err       error
	marked    map[string]decimal.Decimal
	active    []wallet.Customer
	activeErr error
}

func (f *fakeCustomers) MarkLastDepositAndIncreaseTotal(_ context.Context, mobile string, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.marked == nil {
		f.marked = map[string]decimal.Decimal{}
	}
	f.marked[mobile] = f.marked[mobile].Add(amount)
	return nil
}

func (f *fakeCustomers) FindAllActive(context.Context) ([]wallet.Customer, error) {
	return f.active, f.activeErr
}

type fakeCompanyBanks struct {
	mu       sync.Mutex
	err      error
	balances map[string]decimal.Decimal
}

func (f *fakeCompanyBanks) UpdateBalance(_ context.Context, account string, balance decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.balances == nil {
		f.balances = map[string]decimal.Decimal{}
	}
	f.balances[account] = balance
	return nil
}

func (f *fakeCompanyBanks) IncreaseBalance(_ context.Context, account string, amount decimal.Decimal) (*wallet.CompanyBank, error) {
	return &wallet.CompanyBank{BankAccountNumber: account}, nil
}

func (f *fakeCompanyBanks) DecreaseBalance(_ context.Context, account string, amount decimal.Decimal) (*wallet.CompanyBank, error) {
	return &wallet.CompanyBank{BankAccountNumber: account}, nil
}

type fakeTransactions struct {
	mu    sync.Mutex
	err   error
	saved []wallet.Transaction
}

func (f *fakeTransactions) SaveTransaction(_ context.Context, tx *wallet.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *tx)
	return nil
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []alertx.Alert
}

func (f *fakeAlerter) Raise(_ context.Context, a alertx.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
}

func (f *fakeAlerter) ofClass(c alertx.Class) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.alerts {
		if a.Class == c {
			n++
		}
	}
	return n
}

type fakeLedger struct {
	mu   sync.Mutex
	done map[string]bool
}

func (f *fakeLedger) IsProcessed(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done[key], nil
}

func (f *fakeLedger) MarkProcessed(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done == nil {
		f.done = map[string]bool{}
	}
	f.done[key] = true
	return nil
}

// fakeJobEvents mimics ON CONFLICT (job_id) DO NOTHING. failAfterInsert
// makes the first n writes land but report an error, like a lost ack.
type fakeJobEvents struct {
	mu              sync.Mutex
	byJob           map[string]wallet.JobEvent
	calls           int
	failAfterInsert int
	alwaysFail      error
}

func (f *fakeJobEvents) SaveJobEventFailed(_ context.Context, ev *wallet.JobEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.alwaysFail != nil {
		return false, f.alwaysFail
	}
	if f.byJob == nil {
		f.byJob = map[string]wallet.JobEvent{}
	}
	_, exists := f.byJob[ev.JobID]
	if !exists {
		f.byJob[ev.JobID] = *ev
	}
	if f.failAfterInsert > 0 {
		f.failAfterInsert--
		return false, errors.New("connection reset")
	}
	return !exists, nil
}

func (f *fakeJobEvents) GetJobEvent(_ context.Context, id string) (*wallet.JobEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.byJob {
		if ev.ID == id {
			return &ev, nil
		}
	}
	return nil, wallet.NewError(wallet.ErrJobEventNotFound)
}

func (f *fakeJobEvents) ListJobEvents(_ context.Context, opts kernel.PaginationOptions) (kernel.Paginated[wallet.JobEvent], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]wallet.JobEvent, 0, len(f.byJob))
	for _, ev := range f.byJob {
		items = append(items, ev)
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, len(items)), nil
}

func (f *fakeJobEvents) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byJob)
}

type fakeHistory struct {
	mu       sync.Mutex
	byHash   map[string]wallet.CashbackHistory
	saveErr  error
	statuses map[string][]wallet.CashbackStatus
}

func (f *fakeHistory) SaveCashbackHistory(_ context.Context, h *wallet.CashbackHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.byHash == nil {
		f.byHash = map[string]wallet.CashbackHistory{}
	}
	if _, ok := f.byHash[h.Hash]; ok {
		return wallet.NewError(wallet.ErrDuplicateCashback).WithDetail("hash", h.Hash)
	}
	f.byHash[h.Hash] = *h
	return nil
}

func (f *fakeHistory) GetCashbackHistoryByHash(_ context.Context, hash string) (*wallet.CashbackHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.byHash[hash]
	if !ok {
		return nil, errors.New("not found")
	}
	return &h, nil
}

func (f *fakeHistory) UpdateCashbackStatus(_ context.Context, hash string, status wallet.CashbackStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.byHash[hash]
	h.Status = status
	f.byHash[hash] = h
	if f.statuses == nil {
		f.statuses = map[string][]wallet.CashbackStatus{}
	}
	f.statuses[hash] = append(f.statuses[hash], status)
	return nil
}
