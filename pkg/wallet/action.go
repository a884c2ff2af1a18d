package wallet

// Action is a money-movement job type. The set is closed: dispatch switches
// over these constants and ParseAction rejects anything else.
type Action string

const (
	ActionDeposit          Action = "deposit"
	ActionWithdraw         Action = "withdraw"
	ActionWithdrawAndWaive Action = "withdraw_and_waive"
)

// Actions lists every supported action.
func Actions() []Action {
	return []Action{ActionDeposit, ActionWithdraw, ActionWithdrawAndWaive}
}

// ParseAction maps a job name to an Action.
func ParseAction(name string) (Action, error) {
	switch a := Action(name); a {
	case ActionDeposit, ActionWithdraw, ActionWithdrawAndWaive:
		return a, nil
	default:
		return "", walletErrors.New(ErrUnsupportedAction).WithDetail("job_name", name)
	}
}

func (a Action) String() string { return string(a) }

// State is the saga cursor: the last step that completed.
type State string

const (
	StateStart                     State = "START"
	StateWalletDeposit             State = "WALLET.DEPOSIT"
	StateWalletWithdraw            State = "WALLET.WITHDRAW"
	StateBankWithdraw              State = "BANK.WITHDRAW"
	StateBankDeposit               State = "BANK.DEPOSIT"
	StateCompanyUpdateBalance      State = "COMPANY.UPDATE.BALANCE"
	StateCustomerUpdateCredit      State = "CUSTOMER.UPDATE.CREDIT"
	StateCustomerUpdateLastDeposit State = "CUSTOMER.UPDATE.LAST_DEPOSIT"
	StateTransactionCreated        State = "TRANSACTION.CREATED"
)

func (s State) String() string { return string(s) }
