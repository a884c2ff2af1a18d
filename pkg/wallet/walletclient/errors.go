package walletclient

import (
	"net/http"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
)

var clientErrors = errx.NewRegistry("WALLET_CLIENT")

var (
	ErrRequestFailed = clientErrors.Register("REQUEST_FAILED", errx.TypeExternal, http.StatusBadGateway, "External service request failed")
	ErrRejected      = clientErrors.Register("REJECTED", errx.TypeExternal, http.StatusBadGateway, "External service rejected the request")
	ErrCircuitOpen   = clientErrors.Register("CIRCUIT_OPEN", errx.TypeExternal, http.StatusServiceUnavailable, "External service circuit is open")
	ErrDecode        = clientErrors.Register("DECODE", errx.TypeExternal, http.StatusBadGateway, "Unreadable external service response")
)
