package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"banking-ledger/models"
)

func seedMemory(t *testing.T, numbers ...string) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	for _, n := range numbers {
		acc := models.Account{AccountNumber: n, Name: "Test " + n, Balance: decimal.NewFromInt(2000)}
		if err := m.Repositories().Accounts.CreateAccount(context.Background(), acc); err != nil {
			t.Fatalf("seed %s: %v", n, err)
		}
	}
	return m
}

func TestMemoryWithinTxDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	m := seedMemory(t, "1111111111")
	boom := errors.New("boom")

	err := m.WithinTx(ctx, func(r Repositories) error {
		if err := r.Accounts.AdjustBalance(ctx, "1111111111", decimal.NewFromInt(500)); err != nil {
			return err
		}
		if _, err := r.Transactions.Append(ctx, "1111111111", models.KindCredit, decimal.NewFromInt(500), ""); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}

	acc, _ := m.Repositories().Accounts.GetAccount(ctx, "1111111111")
	if !acc.Balance.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("balance changed to %s", acc.Balance)
	}
	h, _ := m.Repositories().Transactions.History(ctx, "1111111111")
	if len(h) != 0 {
		t.Errorf("ledger kept %d rows", len(h))
	}
}

func TestMemoryWithinTxCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryStore().WithinTx(ctx, func(Repositories) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestMemoryAccountRules(t *testing.T) {
	ctx := context.Background()
	m := seedMemory(t, "2222222222", "1111111111")
	accounts := m.Repositories().Accounts

	if err := accounts.CreateAccount(ctx, models.Account{AccountNumber: "1111111111"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate create: %v", err)
	}
	if err := accounts.AdjustBalance(ctx, "1111111111", decimal.NewFromInt(-2001)); err == nil {
		t.Error("balance went negative")
	}
	if err := accounts.AdjustBalance(ctx, "9999999999", decimal.NewFromInt(1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing account: %v", err)
	}
	list, err := accounts.ListAccounts(ctx)
	if err != nil || len(list) != 2 || list[0].AccountNumber != "1111111111" {
		t.Errorf("ListAccounts = %v, %v", list, err)
	}
	if list[0].Status != models.StatusActive {
		t.Errorf("default status = %q", list[0].Status)
	}
}

func TestMemoryCredentials(t *testing.T) {
	ctx := context.Background()
	m := seedMemory(t, "1111111111")
	creds := m.Repositories().Credentials

	if _, err := creds.CreateCredential(ctx, "9999999999", []byte("h")); err == nil {
		t.Error("credential created for missing account")
	}
	id, err := creds.CreateCredential(ctx, "1111111111", []byte("hash-1"))
	if err != nil || id != 1 {
		t.Fatalf("id=%d err=%v", id, err)
	}
	if _, err := creds.CreateCredential(ctx, "1111111111", []byte("hash-2")); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second credential: %v", err)
	}

	c, _ := creds.GetCredential(ctx, "1111111111")
	c.PasswordHash[0] = 'X'
	again, _ := creds.GetCredential(ctx, "1111111111")
	if string(again.PasswordHash) != "hash-1" {
		t.Errorf("stored hash aliased caller slice: %q", again.PasswordHash)
	}
}

func TestMemoryLedgerTimestampsNeverGoBack(t *testing.T) {
	ctx := context.Background()
	m := seedMemory(t, "1111111111")
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Hour), base.Add(time.Minute)}
	m.now = func() time.Time {
		t := clock[0]
		clock = clock[1:]
		return t
	}

	ledger := m.Repositories().Transactions
	for range 3 {
		if _, err := ledger.Append(ctx, "1111111111", models.KindCredit, decimal.NewFromInt(1), ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ledger.Append(ctx, "1111111111", "refund", decimal.NewFromInt(1), ""); err == nil {
		t.Error("unknown kind accepted")
	}

	h, _ := ledger.History(ctx, "1111111111")
	if len(h) != 3 {
		t.Fatalf("history has %d rows", len(h))
	}
	for i := 1; i < len(h); i++ {
		if h[i].CreatedAt.Before(h[i-1].CreatedAt) {
			t.Errorf("row %d at %v precedes row %d at %v", h[i].ID, h[i].CreatedAt, h[i-1].ID, h[i-1].CreatedAt)
		}
		if h[i].ID <= h[i-1].ID {
			t.Errorf("ids not increasing: %d then %d", h[i-1].ID, h[i].ID)
		}
	}

	tx, err := ledger.Get(ctx, 2)
	if err != nil || tx.ID != 2 {
		t.Errorf("Get(2) = %+v, %v", tx, err)
	}
	if _, err := ledger.Get(ctx, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(10): %v", err)
	}
}
