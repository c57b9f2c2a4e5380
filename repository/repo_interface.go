package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"banking-ledger/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert collides with an existing key.
	ErrDuplicate = errors.New("duplicate key")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same repository code runs
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AccountRepository defines the account-related storage operations.
type AccountRepository interface {
	CreateAccount(ctx context.Context, acc models.Account) error
	GetAccount(ctx context.Context, accountNumber string) (models.Account, error)
	// GetAccountForUpdate reads the account and holds its row lock until the
	// surrounding transaction ends.
	GetAccountForUpdate(ctx context.Context, accountNumber string) (models.Account, error)
	AccountExists(ctx context.Context, accountNumber string) (bool, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	AdjustBalance(ctx context.Context, accountNumber string, delta decimal.Decimal) error
	SetStatus(ctx context.Context, accountNumber string, status models.AccountStatus) error
}

// CredentialRepository defines the credential storage operations.
type CredentialRepository interface {
	CreateCredential(ctx context.Context, accountNumber string, passwordHash []byte) (int64, error)
	GetCredential(ctx context.Context, accountNumber string) (models.Credential, error)
	UpdatePasswordHash(ctx context.Context, accountNumber string, passwordHash []byte) error
	TouchLastLogin(ctx context.Context, accountNumber string, at time.Time) error
}

// TransactionRepository is the append-only ledger. Rows are never updated or deleted.
type TransactionRepository interface {
	Append(ctx context.Context, accountNumber string, kind models.TransactionKind, amount decimal.Decimal, counterparty string) (int64, error)
	Get(ctx context.Context, transactionID int64) (models.Transaction, error)
	History(ctx context.Context, accountNumber string) ([]models.Transaction, error)
}

// Repositories bundles the repositories bound to one connection or transaction.
type Repositories struct {
	Accounts     AccountRepository
	Credentials  CredentialRepository
	Transactions TransactionRepository
}

// Store hands out repositories and runs units of work.
//
// Repositories returned by Repositories() autocommit each call. WithinTx runs fn
// against repositories bound to a single transaction: it commits when fn returns nil
// and rolls back otherwise. fn must only use the repositories it is given.
type Store interface {
	Repositories() Repositories
	WithinTx(ctx context.Context, fn func(r Repositories) error) error
	Close() error
}
