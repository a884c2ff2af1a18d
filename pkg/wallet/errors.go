package wallet

import (
	"net/http"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
)

var walletErrors = errx.NewRegistry("WALLET")

var (
	ErrUnsupportedAction   = walletErrors.Register("UNSUPPORTED_ACTION", errx.TypeValidation, http.StatusBadRequest, "Job type not supported")
	ErrInvalidRequest      = walletErrors.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid money-movement request")
	ErrInsufficientBalance = walletErrors.Register("INSUFFICIENT_BALANCE", errx.TypeBusiness, http.StatusUnprocessableEntity, "Insufficient wallet balance")
	ErrStepFailed          = walletErrors.Register("STEP_FAILED", errx.TypeExternal, http.StatusBadGateway, "Saga step failed")
	ErrCompensationFailed  = walletErrors.Register("COMPENSATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Compensating action failed")
	ErrProduceFailed       = walletErrors.Register("PRODUCE_FAILED", errx.TypeExternal, http.StatusServiceUnavailable, "Unable to produce wallet job")
	ErrJobEventNotFound    = walletErrors.Register("JOB_EVENT_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Dead-letter record not found")
	ErrDuplicateCashback   = walletErrors.Register("DUPLICATE_CASHBACK", errx.TypeConflict, http.StatusConflict, "Cashback already recorded for period")
	ErrCustomerNotFound    = walletErrors.Register("CUSTOMER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Customer not found")
	ErrCompanyBankNotFound = walletErrors.Register("COMPANY_BANK_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Company bank not found")
)

// NewError builds a WALLET coded error.
func NewError(code *errx.ErrorCode) *errx.Error {
	return walletErrors.New(code)
}

// NewErrorWithCause builds a WALLET coded error wrapping cause.
func NewErrorWithCause(code *errx.ErrorCode, cause error) *errx.Error {
	return walletErrors.NewWithCause(code, cause)
}

// NewErrorWithMessage builds a WALLET coded error with a custom message.
func NewErrorWithMessage(code *errx.ErrorCode, message string) *errx.Error {
	return walletErrors.NewWithMessage(code, message)
}
