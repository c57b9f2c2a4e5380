package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"banking-ledger/models"
)

func newMock(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewMySQLStore(db), mock
}

var accountCols = []string{"account_number", "name", "dob", "city", "balance", "contact_number", "email", "address", "status"}

func accountRow(number, balance, status string) *sqlmock.Rows {
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(accountCols).
		AddRow(number, "Asha Rao", dob, "Pune", balance, "9876543210", "asha@example.com", "12 MG Road", status)
}

func TestMySQLCreateAccount(t *testing.T) {
	store, mock := newMock(t)
	acc := models.Account{
		AccountNumber: "1234567890",
		Name:          "Asha Rao",
		DOB:           time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		City:          "Pune",
		Balance:       decimal.RequireFromString("2000"),
		ContactNumber: "9876543210",
		Email:         "asha@example.com",
		Address:       "12 MG Road",
		Status:        models.StatusActive,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts (" + accountColumns + ") VALUES")).
		WithArgs("1234567890", "Asha Rao", "1990-05-17", "Pune", acc.Balance, "9876543210", "asha@example.com", "12 MG Road", "active").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Repositories().Accounts.CreateAccount(context.Background(), acc); err != nil {
		t.Fatal(err)
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1234567890' for key 'PRIMARY'"})
	err := store.Repositories().Accounts.CreateAccount(context.Background(), acc)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
}

func TestMySQLGetAccount(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + accountColumns + " FROM accounts WHERE account_number = ?")).
		WithArgs("1234567890").
		WillReturnRows(accountRow("1234567890", "2500.50", "inactive"))
	acc, err := store.Repositories().Accounts.GetAccount(ctx, "1234567890")
	if err != nil {
		t.Fatal(err)
	}
	if !acc.Balance.Equal(decimal.RequireFromString("2500.5")) || acc.Status != models.StatusInactive || acc.DOB.Year() != 1990 {
		t.Fatalf("unexpected account: %+v", acc)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE account_number = ?")).
		WithArgs("0000000000").
		WillReturnRows(sqlmock.NewRows(accountCols))
	if _, err := store.Repositories().Accounts.GetAccount(ctx, "0000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMySQLAdjustBalanceMissingAccount(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance + ? WHERE account_number = ?")).
		WithArgs(decimal.RequireFromString("-10"), "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := store.Repositories().Accounts.AdjustBalance(context.Background(), "1234567890", decimal.RequireFromString("-10"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMySQLSetStatusUnchanged(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET status = ? WHERE account_number = ?")).
		WithArgs("active", "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM accounts WHERE account_number = ?")).
		WithArgs("1234567890").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	if err := store.Repositories().Accounts.SetStatus(context.Background(), "1234567890", models.StatusActive); err != nil {
		t.Fatal(err)
	}
}

func TestMySQLCredentials(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()
	creds := store.Repositories().Credentials
	hash := []byte("$2a$04$abcdefghijklmnopqrstuv")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credentials (account_number, password_hash) VALUES (?, ?)")).
		WithArgs("1234567890", hash).
		WillReturnResult(sqlmock.NewResult(7, 1))
	id, err := creds.CreateCredential(ctx, "1234567890", hash)
	if err != nil || id != 7 {
		t.Fatalf("id=%d err=%v", id, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, account_number, password_hash, last_login FROM credentials WHERE account_number = ?")).
		WithArgs("1234567890").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "password_hash", "last_login"}).
			AddRow(7, "1234567890", hash, nil))
	cred, err := creds.GetCredential(ctx, "1234567890")
	if err != nil {
		t.Fatal(err)
	}
	if cred.ID != 7 || string(cred.PasswordHash) != string(hash) || cred.LastLogin != nil {
		t.Fatalf("unexpected credential: %+v", cred)
	}

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE credentials SET last_login = ? WHERE account_number = ?")).
		WithArgs(at, "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := creds.TouchLastLogin(ctx, "1234567890", at); err != nil {
		t.Fatal(err)
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE credentials SET last_login")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := creds.TouchLastLogin(ctx, "0000000000", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMySQLLedger(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()
	ledger := store.Repositories().Transactions
	amount := decimal.RequireFromString("500")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions (account_number, type, amount, counterparty) VALUES (?, ?, ?, ?)")).
		WithArgs("1234567890", "credit", amount, nil).
		WillReturnResult(sqlmock.NewResult(41, 1))
	id, err := ledger.Append(ctx, "1234567890", models.KindCredit, amount, "")
	if err != nil || id != 41 {
		t.Fatalf("id=%d err=%v", id, err)
	}

	t0 := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+transactionColumns+" FROM transactions WHERE account_number = ? ORDER BY id")).
		WithArgs("1234567890").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "type", "amount", "counterparty", "created_at"}).
			AddRow(41, "1234567890", "credit", "500.00", nil, t0).
			AddRow(42, "1234567890", "transfer", "20.00", "2222222222", t0.Add(time.Second)))
	h, err := ledger.History(ctx, "1234567890")
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 || h[0].Kind != models.KindCredit || h[1].Counterparty != "2222222222" || !h[1].Amount.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("unexpected history: %+v", h)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = ?")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "type", "amount", "counterparty", "created_at"}))
	if _, err := ledger.Get(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMySQLWithinTxCommit(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()
	amount := decimal.RequireFromString("250")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE account_number = ? FOR UPDATE")).
		WithArgs("1234567890").
		WillReturnRows(accountRow("1234567890", "2000.00", "active"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance + ?")).
		WithArgs(amount, "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("1234567890", "credit", amount, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(r Repositories) error {
		if _, err := r.Accounts.GetAccountForUpdate(ctx, "1234567890"); err != nil {
			return err
		}
		if err := r.Accounts.AdjustBalance(ctx, "1234567890", amount); err != nil {
			return err
		}
		_, err := r.Transactions.Append(ctx, "1234567890", models.KindCredit, amount, "")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMySQLWithinTxRollback(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()
	amount := decimal.RequireFromString("250")
	boom := errors.New("lost connection")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance + ?")).
		WithArgs(amount, "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.WithinTx(ctx, func(r Repositories) error {
		if err := r.Accounts.AdjustBalance(ctx, "1234567890", amount); err != nil {
			return err
		}
		_, err := r.Transactions.Append(ctx, "1234567890", models.KindCredit, amount, "")
		return err
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want lost connection, got %v", err)
	}
}

func TestMySQLWithinTxBeginFails(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
	called := false
	err := store.WithinTx(context.Background(), func(Repositories) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}
