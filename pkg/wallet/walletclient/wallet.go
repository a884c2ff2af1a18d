package walletclient

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/config"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/shopspring/decimal"
)

// WalletClient calls the Wallet Service. Requests are signed with
// md5(agCode + timestamp + secret) and usernames carry the agent prefix.
type WalletClient struct {
	baseURL   string
	agentCode string
	secret    string
	prefix    string
	transport *transport
	now       func() time.Time
}

func NewWalletClient(cfg config.WalletConfig) *WalletClient {
	prefix := cfg.UsernamePrefix
	if prefix == "" {
		prefix = "thai"
	}
	return &WalletClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		agentCode: cfg.AgentCode,
		secret:    cfg.Secret,
		prefix:    prefix,
		transport: newTransport("wallet", cfg.Timeout, nil),
		now:       time.Now,
	}
}

type walletStatus struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Signature returns the request signature for a millisecond timestamp.
func Signature(agentCode string, timestamp int64, secret string) string {
	sum := md5.Sum([]byte(agentCode + strconv.FormatInt(timestamp, 10) + secret))
	return hex.EncodeToString(sum[:])
}

func (c *WalletClient) username(u string) string { return c.prefix + u }

func (c *WalletClient) call(ctx context.Context, cmd string, body any, out any) error {
	ts := c.now().UnixMilli()
	q := url.Values{}
	q.Set("agCode", c.agentCode)
	q.Set("timestamp", strconv.FormatInt(ts, 10))
	q.Set("signature", Signature(c.agentCode, ts, c.secret))
	endpoint := c.baseURL + "/api/cmd/" + cmd + "?" + q.Encode()

	data, err := c.transport.postJSON(ctx, endpoint, body)
	if err != nil {
		return err
	}

	var status walletStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return clientErrors.NewWithCause(ErrDecode, err).WithDetail("cmd", cmd)
	}
	if status.Code != 0 {
		return clientErrors.NewWithMessage(ErrRejected, "wallet "+cmd+": "+status.Msg).
			WithDetail("cmd", cmd).
			WithDetail("code", status.Code)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return clientErrors.NewWithCause(ErrDecode, err).WithDetail("cmd", cmd)
	}
	return nil
}

// transferBody sends amounts as JSON numbers.
type transferBody struct {
	Username string      `json:"username"`
	Amount   json.Number `json:"amount"`
	Hash     string      `json:"hash"`
}

func (c *WalletClient) Deposit(ctx context.Context, username string, amount decimal.Decimal, hash string) (*wallet.WalletTransfer, error) {
	var out wallet.WalletTransfer
	body := transferBody{Username: c.username(username), Amount: json.Number(amount.String()), Hash: hash}
	if err := c.call(ctx, "deposit", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WalletClient) Withdraw(ctx context.Context, username string, amount decimal.Decimal, hash string) (*wallet.WalletTransfer, error) {
	var out wallet.WalletTransfer
	body := transferBody{Username: c.username(username), Amount: json.Number(amount.String()), Hash: hash}
	if err := c.call(ctx, "withdraw", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WalletClient) Balance(ctx context.Context, username string) (*wallet.WalletBalance, error) {
	var out wallet.WalletBalance
	if err := c.call(ctx, "balance", map[string]string{"username": c.username(username)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WalletClient) CreateWallet(ctx context.Context, username string) (*wallet.WalletAccount, error) {
	var out wallet.WalletAccount
	if err := c.call(ctx, "createPlayer", map[string]string{"username": c.username(username)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SummaryReport defaults an empty period to the current month in Thai time.
func (c *WalletClient) SummaryReport(ctx context.Context, q wallet.SummaryReportQuery) (*wallet.SummaryReport, error) {
	if q.DateStart == "" || q.DateEnd == "" {
		now := c.now().In(wallet.ThaiTime)
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, wallet.ThaiTime)
		if q.DateStart == "" {
			q.DateStart = first.Format("2006-01-02")
		}
		if q.DateEnd == "" {
			q.DateEnd = first.AddDate(0, 1, -1).Format("2006-01-02")
		}
	}

	body := map[string]string{
		"username":  c.username(q.Username),
		"type":      q.Type,
		"dateStart": q.DateStart,
		"dateEnd":   q.DateEnd,
	}
	var out wallet.SummaryReport
	if err := c.call(ctx, "SummaryReport", body, &out); err != nil {
		return nil, err
	}
	out.Username = strings.TrimPrefix(out.Username, c.prefix)
	return &out, nil
}
