package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"banking-ledger/models"
)

const accountColumns = "account_number, name, dob, city, balance, contact_number, email, address, status"

// mysqlAccountRepository implements AccountRepository for MySQL.
type mysqlAccountRepository struct {
	db DBTX
}

// NewMySQLAccountRepository creates a new MySQL account repository.
func NewMySQLAccountRepository(db DBTX) AccountRepository {
	return &mysqlAccountRepository{db: db}
}

// CreateAccount inserts a new account row.
func (r *mysqlAccountRepository) CreateAccount(ctx context.Context, acc models.Account) error {
	query := "INSERT INTO accounts (" + accountColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		acc.AccountNumber, acc.Name, acc.DOB.Format(dateLayout), acc.City, acc.Balance,
		acc.ContactNumber, acc.Email, acc.Address, string(acc.Status))
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("CreateAccount: %w: %s", ErrDuplicate, acc.AccountNumber)
		}
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

// GetAccount retrieves a single account by its number.
func (r *mysqlAccountRepository) GetAccount(ctx context.Context, accountNumber string) (models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE account_number = ?"
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		return acc, fmt.Errorf("GetAccount: %w", err)
	}
	return acc, nil
}

// GetAccountForUpdate retrieves the account with a row lock.
func (r *mysqlAccountRepository) GetAccountForUpdate(ctx context.Context, accountNumber string) (models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE account_number = ? FOR UPDATE"
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		return acc, fmt.Errorf("GetAccountForUpdate: %w", err)
	}
	return acc, nil
}

// AccountExists reports whether an account with the given number exists.
func (r *mysqlAccountRepository) AccountExists(ctx context.Context, accountNumber string) (bool, error) {
	var n int
	query := "SELECT COUNT(*) FROM accounts WHERE account_number = ?"
	if err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(&n); err != nil {
		return false, fmt.Errorf("AccountExists: %w", err)
	}
	return n > 0, nil
}

// ListAccounts retrieves all accounts ordered by account number.
func (r *mysqlAccountRepository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts ORDER BY account_number"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: scan error: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAccounts: rows iteration error: %w", err)
	}
	return accounts, nil
}

// AdjustBalance adds delta (positive or negative) to an account's balance.
func (r *mysqlAccountRepository) AdjustBalance(ctx context.Context, accountNumber string, delta decimal.Decimal) error {
	query := "UPDATE accounts SET balance = balance + ? WHERE account_number = ?"
	result, err := r.db.ExecContext(ctx, query, delta, accountNumber)
	if err != nil {
		return fmt.Errorf("AdjustBalance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("AdjustBalance: RowsAffected failed: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("AdjustBalance: %w: account %s", ErrNotFound, accountNumber)
	}
	return nil
}

// SetStatus moves an account between active and inactive.
func (r *mysqlAccountRepository) SetStatus(ctx context.Context, accountNumber string, status models.AccountStatus) error {
	query := "UPDATE accounts SET status = ? WHERE account_number = ?"
	result, err := r.db.ExecContext(ctx, query, string(status), accountNumber)
	if err != nil {
		return fmt.Errorf("SetStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetStatus: RowsAffected failed: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the status is unchanged.
	exists, err := r.AccountExists(ctx, accountNumber)
	if err != nil {
		return fmt.Errorf("SetStatus: %w", err)
	}
	if !exists {
		return fmt.Errorf("SetStatus: %w: account %s", ErrNotFound, accountNumber)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var acc models.Account
	var status string
	err := row.Scan(&acc.AccountNumber, &acc.Name, &acc.DOB, &acc.City, &acc.Balance,
		&acc.ContactNumber, &acc.Email, &acc.Address, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return acc, ErrNotFound
		}
		return acc, err
	}
	acc.Status = models.AccountStatus(status)
	return acc, nil
}

const dateLayout = "2006-01-02"

// isDuplicateKey reports whether err is MySQL's ER_DUP_ENTRY.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
