//go:build integration

package walletinfra_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/kernel"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet/walletinfra"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// openDB starts Postgres 16, or reuses WALLET_TEST_PG_DSN, and migrates it.
func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("WALLET_TEST_PG_DSN")
	if dsn == "" {
		pgC, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("wallet"),
			postgres.WithUsername("wallet"),
			postgres.WithPassword("wallet"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("start postgres: %v", err)
		}
		t.Cleanup(func() { _ = pgC.Terminate(ctx) })

		dsn, err = pgC.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("connection string: %v", err)
		}
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := walletinfra.Migrate(db.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, tbl := range []string{"job_events_failed", "cashback_histories", "transactions", "company_banks", "customers"} {
		if _, err := db.Exec("TRUNCATE TABLE " + tbl); err != nil {
			t.Fatalf("truncate %s: %v", tbl, err)
		}
	}
	return db
}

func TestPostgres_CustomerDepositIsAtomicIncrement(t *testing.T) {
	db := openDB(t)
	repo := walletinfra.NewPostgresCustomerRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, wallet.Customer{ID: "c1", MobileNumber: "0812345678", Active: true, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, amt := range []int64{500, 250} {
		if err := repo.MarkLastDepositAndIncreaseTotal(ctx, "0812345678", decimal.NewFromInt(amt)); err != nil {
			t.Fatalf("Mark: %v", err)
		}
	}
	c, err := repo.FindByMobileNumber(ctx, "0812345678")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !c.LastDepositAmount.Equal(decimal.NewFromInt(250)) || !c.TotalDepositAmount.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("customer = %+v", c)
	}

	err = repo.MarkLastDepositAndIncreaseTotal(ctx, "0899999999", decimal.NewFromInt(1))
	if !errx.HasCode(err, wallet.ErrCustomerNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	active, err := repo.FindAllActive(ctx)
	if err != nil || len(active) != 1 {
		t.Fatalf("FindAllActive = %v, %v", active, err)
	}
}

func TestPostgres_CompanyBankDeltas(t *testing.T) {
	db := openDB(t)
	repo := walletinfra.NewPostgresCompanyBankRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, wallet.CompanyBank{ID: "b1", BankAccountNumber: "111", Balance: decimal.NewFromInt(10000), UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.DecreaseBalance(ctx, "111", decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("Decrease: %v", err)
	}
	b, err := repo.IncreaseBalance(ctx, "111", decimal.NewFromInt(300))
	if err != nil || !b.Balance.Equal(decimal.NewFromInt(9300)) {
		t.Fatalf("Increase = %+v, %v", b, err)
	}
	if _, err := repo.DecreaseBalance(ctx, "111", decimal.NewFromInt(-1)); err == nil {
		t.Fatal("negative decrease accepted")
	}
	if err := repo.UpdateBalance(ctx, "111", decimal.NewFromInt(9000)); err != nil {
		t.Fatalf("UpdateBalance: %v", err)
	}
	if err := repo.UpdateBalance(ctx, "999", decimal.NewFromInt(1)); !errx.HasCode(err, wallet.ErrCompanyBankNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_JobEventSavedOncePerJob(t *testing.T) {
	db := openDB(t)
	repo := walletinfra.NewPostgresJobEventRepository(db)
	ctx := context.Background()

	ev := &wallet.JobEvent{
		ID: "e1", JobID: "job-1", Name: "deposit", Queue: "wallet",
		FailedReason: "boom", AttemptsMade: 3, MaxAttempts: 3,
		Data: []byte(`{"username":"0812345678","amount":"500","hash":"abc123"}`),
		Stacktrace: []string{"attempt 1: boom"}, EnqueuedAt: time.Now(), CreatedAt: time.Now(),
	}
	created, err := repo.SaveJobEventFailed(ctx, ev)
	if err != nil || !created {
		t.Fatalf("first save = %v, %v", created, err)
	}
	dup := *ev
	dup.ID = "e2"
	created, err = repo.SaveJobEventFailed(ctx, &dup)
	if err != nil || created {
		t.Fatalf("second save = %v, %v", created, err)
	}

	page, err := repo.ListJobEvents(ctx, kernel.PaginationOptions{})
	if err != nil || page.Page.Total != 1 {
		t.Fatalf("List = %+v, %v", page, err)
	}
	got, err := repo.GetJobEvent(ctx, "e1")
	if err != nil || got.Stacktrace[0] != "attempt 1: boom" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestPostgres_CashbackHistoryUniqueHash(t *testing.T) {
	db := openDB(t)
	repo := walletinfra.NewPostgresCashbackHistoryRepository(db)
	ctx := context.Background()

	h := &wallet.CashbackHistory{
		ID: "h1", Username: "0812345678", Cashback: decimal.NewFromInt(-10),
		Hash: "hash-1", Status: wallet.CashbackSuccess, DateStart: "2026-09-01", DateEnd: "2026-09-30", CreatedAt: time.Now(),
	}
	if err := repo.SaveCashbackHistory(ctx, h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	h.ID = "h2"
	if err := repo.SaveCashbackHistory(ctx, h); !errx.HasCode(err, wallet.ErrDuplicateCashback) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := repo.UpdateCashbackStatus(ctx, "hash-1", wallet.CashbackCheck); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err := repo.GetCashbackHistoryByHash(ctx, "hash-1")
	if err != nil || got.Status != wallet.CashbackCheck {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestPostgres_TransactionHashUnique(t *testing.T) {
	db := openDB(t)
	repo := walletinfra.NewPostgresTransactionRepository(db)
	ctx := context.Background()

	tx := &wallet.Transaction{
		ID: "t1", Hash: "leg-1", Status: wallet.TransactionSuccess, Type: wallet.TransactionWithdraw,
		MobileNumber: "0812345678", Amount: decimal.NewFromInt(1000), TransactionAt: time.Now(),
	}
	if err := repo.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tx.ID = "t2"
	if err := repo.SaveTransaction(ctx, tx); err == nil {
		t.Fatal("duplicate hash accepted")
	}
}
