package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"banking-ledger/models"
)

const transactionColumns = "id, account_number, type, amount, counterparty, created_at"

// mysqlTransactionRepository implements TransactionRepository for MySQL.
type mysqlTransactionRepository struct {
	db DBTX
}

// NewMySQLTransactionRepository creates a new MySQL transaction repository.
func NewMySQLTransactionRepository(db DBTX) TransactionRepository {
	return &mysqlTransactionRepository{db: db}
}

// Append inserts a ledger row and returns its ID. The timestamp is assigned by the
// column default at insert time.
func (r *mysqlTransactionRepository) Append(ctx context.Context, accountNumber string, kind models.TransactionKind, amount decimal.Decimal, counterparty string) (int64, error) {
	query := "INSERT INTO transactions (account_number, type, amount, counterparty) VALUES (?, ?, ?, ?)"
	cp := sql.NullString{String: counterparty, Valid: counterparty != ""}
	result, err := r.db.ExecContext(ctx, query, accountNumber, string(kind), amount, cp)
	if err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("Append: LastInsertId failed: %w", err)
	}
	return id, nil
}

// Get retrieves a single ledger row by its ID.
func (r *mysqlTransactionRepository) Get(ctx context.Context, transactionID int64) (models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE id = ?"
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tx, fmt.Errorf("Get: %w: transaction %d", ErrNotFound, transactionID)
		}
		return tx, fmt.Errorf("Get: %w", err)
	}
	return tx, nil
}

// History retrieves all ledger rows of an account, oldest first.
func (r *mysqlTransactionRepository) History(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE account_number = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("History: scan error: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("History: rows iteration error: %w", err)
	}
	return transactions, nil
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var tx models.Transaction
	var kind string
	var cp sql.NullString
	if err := row.Scan(&tx.ID, &tx.AccountNumber, &kind, &tx.Amount, &cp, &tx.CreatedAt); err != nil {
		return tx, err
	}
	tx.Kind = models.TransactionKind(kind)
	tx.Counterparty = cp.String
	return tx, nil
}
