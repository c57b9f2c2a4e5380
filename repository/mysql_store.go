package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MySQLStore runs units of work as MySQL transactions.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore wraps an open connection pool.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func newSQLRepositories(db DBTX) Repositories {
	return Repositories{
		Accounts:     NewMySQLAccountRepository(db),
		Credentials:  NewMySQLCredentialRepository(db),
		Transactions: NewMySQLTransactionRepository(db),
	}
}

// Repositories returns autocommit repositories bound to the pool.
func (s *MySQLStore) Repositories() Repositories {
	return newSQLRepositories(s.db)
}

// WithinTx runs fn inside a single database transaction.
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(r Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithinTx: begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newSQLRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("WithinTx: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("WithinTx: commit: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
