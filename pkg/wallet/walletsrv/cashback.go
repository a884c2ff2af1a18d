package walletsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/asyncx"
	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// DepositEnqueuer is the part of Producer the cashback job needs.
type DepositEnqueuer interface {
	EnqueueDeposit(ctx context.Context, req wallet.DepositRequest, opts ...jobx.EnqueueOption) (*jobx.Job, error)
}

// CashbackRunReport summarizes one fan-out.
type CashbackRunReport struct {
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Deposited int    `json:"deposited"`
	Failed    int    `json:"failed"`
}

type cashbackOutcome int

const (
	cashbackSkipped cashbackOutcome = iota
	cashbackDeposited
)

// CashbackJob pays last month's negative cashback back to every active
// customer as a deposit job.
type CashbackJob struct {
	customers wallet.CustomerRepository
	wallets   wallet.WalletClient
	history   wallet.CashbackHistoryRepository
	deposits  DepositEnqueuer
	loc       *time.Location
	now       func() time.Time
	logger    *logx.Logger
}

// CashbackOption configures a CashbackJob.
type CashbackOption func(*CashbackJob)

// WithLocation sets the zone whose calendar months define a period.
func WithLocation(loc *time.Location) CashbackOption {
	return func(j *CashbackJob) { j.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CashbackOption {
	return func(j *CashbackJob) { j.now = now }
}

func NewCashbackJob(
	customers wallet.CustomerRepository,
	wallets wallet.WalletClient,
	history wallet.CashbackHistoryRepository,
	deposits DepositEnqueuer,
	opts ...CashbackOption,
) *CashbackJob {
	j := &CashbackJob{
		customers: customers,
		wallets:   wallets,
		history:   history,
		deposits:  deposits,
		loc:       wallet.ThaiTime,
		now:       time.Now,
		logger:    logx.GetDefaultLogger(),
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

// PreviousMonth returns the first and last day of the month before now, as
// seen in loc.
func PreviousMonth(now time.Time, loc *time.Location) (string, string) {
	local := now.In(loc)
	firstOfThis := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	start := firstOfThis.AddDate(0, -1, 0)
	end := firstOfThis.AddDate(0, 0, -1)
	return start.Format(dateLayout), end.Format(dateLayout)
}

// Handle is the jobx handler fired by the recurring schedule.
func (j *CashbackJob) Handle(ctx context.Context, job *jobx.Job) error {
	report, err := j.Run(ctx, j.now())
	if err != nil {
		return err
	}
	return job.SetResult(report)
}

// Run processes every active customer concurrently. A failing customer is
// logged and counted; it never stops the others.
func (j *CashbackJob) Run(ctx context.Context, now time.Time) (*CashbackRunReport, error) {
	dateStart, dateEnd := PreviousMonth(now, j.loc)
	report := &CashbackRunReport{DateStart: dateStart, DateEnd: dateEnd}

	customers, err := j.customers.FindAllActive(ctx)
	if err != nil {
		return nil, errx.Wrap(err, "wallet/cashback: failed to load active customers", errx.TypeExternal)
	}

	results := asyncx.AllSettled(ctx, customers, func(ctx context.Context, c wallet.Customer) (cashbackOutcome, error) {
		return j.processCustomer(ctx, c, dateStart, dateEnd)
	})

	report.Processed = len(customers)
	for i, r := range results {
		switch {
		case !r.OK():
			report.Failed++
			j.logger.WithError(r.Err).WithFields(logx.Fields{
				"username":   customers[i].MobileNumber,
				"date_start": dateStart,
				"date_end":   dateEnd,
			}).Error("wallet/cashback: customer failed")
		case r.Value == cashbackDeposited:
			report.Deposited++
		default:
			report.Skipped++
		}
	}

	j.logger.WithFields(logx.Fields{
		"date_start": dateStart,
		"date_end":   dateEnd,
		"processed":  report.Processed,
		"skipped":    report.Skipped,
		"deposited":  report.Deposited,
		"failed":     report.Failed,
	}).Info("wallet/cashback: run finished")
	return report, nil
}

func (j *CashbackJob) processCustomer(ctx context.Context, c wallet.Customer, dateStart, dateEnd string) (cashbackOutcome, error) {
	summary, err := j.wallets.SummaryReport(ctx, wallet.SummaryReportQuery{
		Username:  c.MobileNumber,
		DateStart: dateStart,
		DateEnd:   dateEnd,
	})
	if err != nil {
		return 0, err
	}
	if !summary.Cashback.IsNegative() {
		return cashbackSkipped, nil
	}

	hash := wallet.HashCashback(c.MobileNumber, dateStart, dateEnd)
	retry := false

	err = j.history.SaveCashbackHistory(ctx, &wallet.CashbackHistory{
		ID:           uuid.NewString(),
		Username:     c.MobileNumber,
		Type:         summary.Type,
		InvestAmount: summary.InvestAmount,
		Cashback:     summary.Cashback,
		Hash:         hash,
		Status:       wallet.CashbackSuccess,
		DateStart:    dateStart,
		DateEnd:      dateEnd,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if !errx.HasCode(err, wallet.ErrDuplicateCashback) {
			return 0, err
		}
		existing, gErr := j.history.GetCashbackHistoryByHash(ctx, hash)
		if gErr != nil {
			return 0, gErr
		}
		if existing.Status != wallet.CashbackCheck {
			return cashbackSkipped, nil
		}
		retry = true
	}

	_, err = j.deposits.EnqueueDeposit(ctx, wallet.DepositRequest{
		Username: c.MobileNumber,
		Amount:   summary.Cashback.Neg(),
		Hash:     hash,
	}, jobx.WithJobID("cashback:"+hash))
	if err != nil && !errx.HasCode(err, jobx.ErrJobExists) {
		if uErr := j.history.UpdateCashbackStatus(ctx, hash, wallet.CashbackCheck); uErr != nil {
			j.logger.WithError(uErr).WithField("hash", hash).Error("wallet/cashback: failed to flag history for check")
		}
		return 0, err
	}

	if retry {
		if uErr := j.history.UpdateCashbackStatus(ctx, hash, wallet.CashbackSuccess); uErr != nil {
			j.logger.WithError(uErr).WithField("hash", hash).Warn("wallet/cashback: failed to clear check flag")
		}
	}
	return cashbackDeposited, nil
}
