package db

import (
	"context"
	"fmt"

	"banking-ledger/repository"
)

// schema is applied in order; accounts must exist before the tables that reference it.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		account_number VARCHAR(10) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		dob DATE NOT NULL,
		city VARCHAR(255) NOT NULL,
		balance DECIMAL(15,2) NOT NULL,
		contact_number VARCHAR(10) NOT NULL,
		email VARCHAR(255) NOT NULL,
		address TEXT NOT NULL,
		status ENUM('active', 'inactive') NOT NULL DEFAULT 'active',
		CONSTRAINT chk_accounts_balance CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS credentials (
		id INT AUTO_INCREMENT PRIMARY KEY,
		account_number VARCHAR(10) NOT NULL UNIQUE,
		password_hash VARBINARY(60) NOT NULL,
		last_login TIMESTAMP(6) NULL DEFAULT NULL,
		FOREIGN KEY (account_number) REFERENCES accounts(account_number)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		account_number VARCHAR(10) NOT NULL,
		type ENUM('credit', 'debit', 'transfer', 'received') NOT NULL,
		amount DECIMAL(15,2) NOT NULL,
		counterparty VARCHAR(10) NULL DEFAULT NULL,
		created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		INDEX idx_transactions_account (account_number, id),
		FOREIGN KEY (account_number) REFERENCES accounts(account_number)
	)`,
}

// EnsureSchema creates the banking tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db repository.DBTX) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("DB: schema statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
