package walletclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/config"
	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet/walletclient"
	"github.com/shopspring/decimal"
)

func walletConfig(url string) config.WalletConfig {
	return config.WalletConfig{
		BaseURL:        url,
		AgentCode:      "AG01",
		Secret:         "s3cret",
		UsernamePrefix: "thai",
		Timeout:        2 * time.Second,
	}
}

func TestWalletClient_DepositSignsAndPrefixes(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cmd/deposit" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		ts, _ := strconv.ParseInt(q.Get("timestamp"), 10, 64)
		if q.Get("agCode") != "AG01" || q.Get("signature") != walletclient.Signature("AG01", ts, "s3cret") {
			t.Errorf("bad signature query %v", q)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","username":"thai0812345678","beforeBalance":0,"afterBalance":500,"tnId":"tn-1"}`))
	}))
	defer srv.Close()

	c := walletclient.NewWalletClient(walletConfig(srv.URL))
	res, err := c.Deposit(context.Background(), "0812345678", decimal.NewFromInt(500), "abc123")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if got["username"] != "thai0812345678" || got["hash"] != "abc123" || got["amount"] != float64(500) {
		t.Fatalf("request body = %v", got)
	}
	if !res.AfterBalance.Equal(decimal.NewFromInt(500)) || res.TnID != "tn-1" {
		t.Fatalf("response = %+v", res)
	}
}

func TestWalletClient_NonZeroCodeIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":1001,"msg":"insufficient balance"}`))
	}))
	defer srv.Close()

	c := walletclient.NewWalletClient(walletConfig(srv.URL))
	_, err := c.Withdraw(context.Background(), "0812345678", decimal.NewFromInt(500), "abc123")
	if !errx.HasCode(err, walletclient.ErrRejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
}

func TestWalletClient_SummaryReportDefaultsPeriod(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"code":0,"username":"thai0812345678","type":"","investAmount":3000,"cashback":-150.5}`))
	}))
	defer srv.Close()

	c := walletclient.NewWalletClient(walletConfig(srv.URL))
	res, err := c.SummaryReport(context.Background(), wallet.SummaryReportQuery{Username: "0812345678"})
	if err != nil {
		t.Fatalf("SummaryReport: %v", err)
	}
	if body["dateStart"] == "" || body["dateEnd"] == "" || body["dateStart"][8:] != "01" {
		t.Fatalf("period not defaulted: %v", body)
	}
	if !res.Cashback.Equal(decimal.RequireFromString("-150.5")) || res.Username != "0812345678" {
		t.Fatalf("response = %+v", res)
	}
}

func TestWalletClient_BreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := walletclient.NewWalletClient(walletConfig(srv.URL))
	var err error
	for range 6 {
		_, err = c.Balance(context.Background(), "0812345678")
	}
	if !errx.HasCode(err, walletclient.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if n := hits.Load(); n != 4 {
		t.Fatalf("server hit %d times, want 4 before the breaker trips", n)
	}
}

func TestBankingClient_WithdrawSendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/system/bank/scb/withdraw" || r.Header.Get("api-key") != "bank-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["fromAccount"] != "111" || body["accountTo"] != "222" || body["amount"] != float64(1000) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"transactionId":"bank-1","transactionDateTime":"2026-10-01T09:00:00+07:00","remainingBalance":9000,"QRString":"qr"}`))
	}))
	defer srv.Close()

	c := walletclient.NewBankingClient(config.BankingConfig{BaseURL: srv.URL, APIKeyHeader: "api-key", APIKey: "bank-key", Timeout: time.Second})
	res, err := c.Withdraw(context.Background(), wallet.BankWithdrawRequest{
		FromAccount: "111", AccountTo: "222", BankCode: "SCB", Amount: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !res.RemainingBalance.Equal(decimal.NewFromInt(9000)) || res.TransactionID != "bank-1" {
		t.Fatalf("response = %+v", res)
	}
}

func TestBankingClient_ServerErrorIsExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := walletclient.NewBankingClient(config.BankingConfig{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.Withdraw(context.Background(), wallet.BankWithdrawRequest{Amount: decimal.NewFromInt(1)})
	if !errx.HasCode(err, walletclient.ErrRequestFailed) {
		t.Fatalf("expected request failure, got %v", err)
	}
}
