package walletsrv

import (
	"fmt"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/shopspring/decimal"
)

// saga tracks the cursor of one running money movement.
type saga struct {
	job      *jobx.Job
	action   wallet.Action
	username string
	amount   decimal.Decimal
	hash     string
	state    wallet.State

	// account is the payout destination; empty for wallet-only movements.
	account string
}

func newSaga(job *jobx.Job, action wallet.Action, username string, amount decimal.Decimal, hash string) *saga {
	return &saga{
		job:      job,
		action:   action,
		username: username,
		amount:   amount,
		hash:     hash,
		state:    wallet.StateStart,
	}
}

func (s *saga) advance(to wallet.State) { s.state = to }

func (s *saga) jobID() string {
	if s.job == nil {
		return ""
	}
	return s.job.ID
}

// fail wraps cause with the failed step and the cursor.
func (s *saga) fail(step wallet.State, cause error) *errx.Error {
	msg := fmt.Sprintf("wallet/processor: %s failed at %s after %s (hash %s)", s.action, step, s.state, s.hash)
	e := wallet.NewErrorWithMessage(wallet.ErrStepFailed, msg).WithDetails(s.fields())
	e.WithDetail("failed_step", string(step))
	e.Err = cause
	return e
}

func (s *saga) fields() map[string]any {
	f := map[string]any{
		"job_name": string(s.action),
		"hash":     s.hash,
		"state":    string(s.state),
		"username": s.username,
		"amount":   s.amount.String(),
	}
	if s.job != nil {
		f["job_id"] = s.job.ID
		f["attempt"] = s.job.AttemptsMade
	}
	return f
}

// Outcome is stored as the job result on success.
type Outcome struct {
	Action      wallet.Action              `json:"action"`
	Hash        string                     `json:"hash"`
	State       wallet.State               `json:"state"`
	Wallet      *wallet.WalletTransfer     `json:"wallet,omitempty"`
	Bank        *wallet.BankWithdrawResult `json:"bank,omitempty"`
	Transaction *wallet.Transaction        `json:"transaction,omitempty"`
	Replayed    bool                       `json:"replayed,omitempty"`
}
