package walletsrv

import "github.com/Abraxas-365/rewardwallet/pkg/wallet"

// CompensationKind is the undo action for a partially applied saga.
type CompensationKind string

const (
	CompensateNone           CompensationKind = "none"
	CompensateWalletWithdraw CompensationKind = "wallet_withdraw"
	CompensateWalletDeposit  CompensationKind = "wallet_deposit"
)

// Compensation describes what to undo after a saga fails with the cursor at
// a given state.
type Compensation struct {
	Kind CompensationKind
	// ReuseHash sends the undo call with the inbound payload hash instead of
	// a fresh recovery hash.
	ReuseHash bool
	// Reconcile means an external mutation cannot be undone here and needs an
	// operator.
	Reconcile bool
}

// Retryable reports whether a failure at state can be retried from a
// compensated baseline. Failures are normally handed back to the queue for
// another attempt. A withdraw_and_waive whose cursor has reached
// BANK.WITHDRAW or later is the exception: it fails permanently and is left
// to manual reconciliation, since a retry would repeat the bank transfer.
func Retryable(action wallet.Action, state wallet.State) bool {
	if action != wallet.ActionWithdrawAndWaive {
		return true
	}
	switch state {
	case wallet.StateBankWithdraw, wallet.StateCompanyUpdateBalance, wallet.StateTransactionCreated:
		return false
	}
	return true
}

// CompensationFor maps the last successful step of a failed saga to its
// compensation.
func CompensationFor(action wallet.Action, state wallet.State) Compensation {
	switch action {
	case wallet.ActionDeposit:
		if state == wallet.StateWalletDeposit {
			return Compensation{Kind: CompensateWalletWithdraw, ReuseHash: true}
		}
	case wallet.ActionWithdraw:
	case wallet.ActionWithdrawAndWaive:
		switch state {
		case wallet.StateWalletWithdraw:
			return Compensation{Kind: CompensateWalletDeposit}
		case wallet.StateBankWithdraw:
			return Compensation{Kind: CompensateWalletDeposit, Reconcile: true}
		}
	}
	return Compensation{Kind: CompensateNone}
}
