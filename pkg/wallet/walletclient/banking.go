package walletclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Abraxas-365/rewardwallet/pkg/config"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
)

const bankWithdrawPath = "/api/system/bank/scb/withdraw"

// BankingClient calls the Banking Transfer Service with an API key header.
type BankingClient struct {
	baseURL   string
	transport *transport
}

func NewBankingClient(cfg config.BankingConfig) *BankingClient {
	header := http.Header{}
	if cfg.APIKey != "" {
		name := cfg.APIKeyHeader
		if name == "" {
			name = "api-key"
		}
		header.Set(name, cfg.APIKey)
	}
	return &BankingClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		transport: newTransport("banking", cfg.Timeout, header),
	}
}

type bankTransferBody struct {
	FromAccount string      `json:"fromAccount"`
	AccountTo   string      `json:"accountTo"`
	BankCode    string      `json:"bankCode"`
	Amount      json.Number `json:"amount"`
}

func (c *BankingClient) Withdraw(ctx context.Context, req wallet.BankWithdrawRequest) (*wallet.BankWithdrawResult, error) {
	body := bankTransferBody{
		FromAccount: req.FromAccount,
		AccountTo:   req.AccountTo,
		BankCode:    req.BankCode,
		Amount:      json.Number(req.Amount.String()),
	}
	data, err := c.transport.postJSON(ctx, c.baseURL+bankWithdrawPath, body)
	if err != nil {
		return nil, err
	}
	var out wallet.BankWithdrawResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, clientErrors.NewWithCause(ErrDecode, err).WithDetail("path", bankWithdrawPath)
	}
	return &out, nil
}
