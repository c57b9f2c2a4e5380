package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"banking-ledger/models"
)

// mysqlCredentialRepository implements CredentialRepository for MySQL.
type mysqlCredentialRepository struct {
	db DBTX
}

// NewMySQLCredentialRepository creates a new MySQL credential repository.
func NewMySQLCredentialRepository(db DBTX) CredentialRepository {
	return &mysqlCredentialRepository{db: db}
}

// CreateCredential stores the password hash for an account and returns the row ID.
func (r *mysqlCredentialRepository) CreateCredential(ctx context.Context, accountNumber string, passwordHash []byte) (int64, error) {
	query := "INSERT INTO credentials (account_number, password_hash) VALUES (?, ?)"
	result, err := r.db.ExecContext(ctx, query, accountNumber, passwordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, fmt.Errorf("CreateCredential: %w: %s", ErrDuplicate, accountNumber)
		}
		return 0, fmt.Errorf("CreateCredential: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateCredential: LastInsertId failed: %w", err)
	}
	return id, nil
}

// GetCredential retrieves the credential bound to an account.
func (r *mysqlCredentialRepository) GetCredential(ctx context.Context, accountNumber string) (models.Credential, error) {
	var c models.Credential
	var lastLogin sql.NullTime
	query := "SELECT id, account_number, password_hash, last_login FROM credentials WHERE account_number = ?"
	err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(&c.ID, &c.AccountNumber, &c.PasswordHash, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, fmt.Errorf("GetCredential: %w: account %s", ErrNotFound, accountNumber)
		}
		return c, fmt.Errorf("GetCredential: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		c.LastLogin = &t
	}
	return c, nil
}

// UpdatePasswordHash replaces the stored hash.
func (r *mysqlCredentialRepository) UpdatePasswordHash(ctx context.Context, accountNumber string, passwordHash []byte) error {
	query := "UPDATE credentials SET password_hash = ? WHERE account_number = ?"
	return r.execOne(ctx, "UpdatePasswordHash", query, passwordHash, accountNumber)
}

// TouchLastLogin records a successful login.
func (r *mysqlCredentialRepository) TouchLastLogin(ctx context.Context, accountNumber string, at time.Time) error {
	query := "UPDATE credentials SET last_login = ? WHERE account_number = ?"
	return r.execOne(ctx, "TouchLastLogin", query, at, accountNumber)
}

func (r *mysqlCredentialRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: RowsAffected failed: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
