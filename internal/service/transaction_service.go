package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"banking-ledger/models"
	"banking-ledger/repository"
)

// TransactionService defines ledger reads and account-to-account transfers.
type TransactionService interface {
	TransferFunds(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal) error
	History(ctx context.Context, accountNumber string) ([]models.Transaction, error)
}

// transactionServiceImpl implements TransactionService.
type transactionServiceImpl struct {
	store repository.Store
	log   *zap.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store repository.Store, log *zap.Logger) TransactionService {
	return &transactionServiceImpl{store: store, log: log.Named("ledger")}
}

// TransferFunds moves amount between two accounts. Both rows are locked in ascending
// account-number order; the sender gets a transfer row and the receiver a received
// row, and all four writes commit or roll back together.
func (s *transactionServiceImpl) TransferFunds(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal) error {
	if fromAccount == toAccount {
		return fmt.Errorf("TransferFunds: %w", ErrSameAccountTransfer)
	}
	if err := checkAmount(amount); err != nil {
		return fmt.Errorf("TransferFunds: %w", err)
	}

	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		locked := make(map[string]models.Account, 2)
		for _, number := range lockOrder(fromAccount, toAccount) {
			acc, err := r.Accounts.GetAccountForUpdate(ctx, number)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("TransferFunds: %s %w (ID: %s)", role(number, fromAccount), ErrAccountNotFound, number)
			}
			if err != nil {
				return err
			}
			if !acc.IsActive() {
				return fmt.Errorf("TransferFunds: %s %w (ID: %s)", role(number, fromAccount), ErrAccountInactive, number)
			}
			locked[number] = acc
		}

		sender := locked[fromAccount]
		if amount.GreaterThan(sender.Balance) {
			return fmt.Errorf("TransferFunds: sender %w (ID: %s, Balance: %s, Amount: %s)",
				ErrInsufficientFunds, fromAccount, sender.Balance, amount)
		}
		if err := checkBalance(locked[toAccount].Balance.Add(amount)); err != nil {
			return fmt.Errorf("TransferFunds: receiver %w (ID: %s, Balance: %s, Amount: %s)",
				err, toAccount, locked[toAccount].Balance, amount)
		}
		if err := r.Accounts.AdjustBalance(ctx, fromAccount, amount.Neg()); err != nil {
			return err
		}
		if err := r.Accounts.AdjustBalance(ctx, toAccount, amount); err != nil {
			return err
		}
		if _, err := r.Transactions.Append(ctx, fromAccount, models.KindTransfer, amount, toAccount); err != nil {
			return err
		}
		_, err := r.Transactions.Append(ctx, toAccount, models.KindReceived, amount, fromAccount)
		return err
	})
	if err != nil {
		return classify("TransferFunds", err)
	}

	s.log.Info("transfer completed",
		zap.String("from", fromAccount),
		zap.String("to", toAccount),
		zap.Stringer("amount", amount))
	return nil
}

// History returns the account's ledger rows, oldest first.
func (s *transactionServiceImpl) History(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	repos := s.store.Repositories()
	if _, err := repos.Accounts.GetAccount(ctx, accountNumber); err != nil {
		return nil, classify("History", err)
	}
	txs, err := repos.Transactions.History(ctx, accountNumber)
	if err != nil {
		return nil, classify("History", err)
	}
	return txs, nil
}

func lockOrder(a, b string) []string {
	if a < b {
		return []string{a, b}
	}
	return []string{b, a}
}

func role(number, sender string) string {
	if number == sender {
		return "sender"
	}
	return "receiver"
}
