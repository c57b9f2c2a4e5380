package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"banking-ledger/internal/validation"
	"banking-ledger/models"
	"banking-ledger/repository"
)

// AccountService defines account creation, balance inquiry and the credit/debit
// operations. Every balance change and its ledger row are written as one unit.
type AccountService interface {
	CreateAccount(ctx context.Context, profile models.Profile, password string, initialBalance decimal.Decimal) (string, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetAccount(ctx context.Context, accountNumber string) (models.Account, error)
	GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error)
	Credit(ctx context.Context, accountNumber string, amount decimal.Decimal) (decimal.Decimal, error)
	Debit(ctx context.Context, accountNumber string, amount decimal.Decimal) (decimal.Decimal, error)
	SetStatus(ctx context.Context, accountNumber string, status models.AccountStatus) error
}

// accountServiceImpl implements AccountService.
type accountServiceImpl struct {
	store    repository.Store
	settings Settings
	log      *zap.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(store repository.Store, settings Settings, log *zap.Logger) AccountService {
	return &accountServiceImpl{
		store:    store,
		settings: settings.withDefaults(),
		log:      log.Named("accounts"),
	}
}

var errAccountNumberTaken = errors.New("account number taken")

// CreateAccount validates the signup, allocates a fresh account number and stores the
// account together with its credential. Either both rows are written or neither.
func (s *accountServiceImpl) CreateAccount(ctx context.Context, profile models.Profile, password string, initialBalance decimal.Decimal) (string, error) {
	if err := validateSignup(profile, password, s.settings.Now()); err != nil {
		return "", fmt.Errorf("CreateAccount: %w", err)
	}
	if initialBalance.LessThan(s.settings.MinOpeningDeposit) {
		return "", fmt.Errorf("CreateAccount: %w (minimum %s, got %s)",
			ErrInsufficientInitialDeposit, s.settings.MinOpeningDeposit, initialBalance)
	}
	if err := checkAmount(initialBalance); err != nil {
		return "", fmt.Errorf("CreateAccount: initial balance: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.settings.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("CreateAccount: hash password: %w", err)
	}

	for attempt := 1; attempt <= maxAccountNumberAttempts; attempt++ {
		number := s.settings.GenerateAccountNumber()
		err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
			available, err := validation.AccountNumberAvailable(ctx, number, r.Accounts)
			if err != nil {
				return err
			}
			if !available {
				return errAccountNumberTaken
			}
			if err := r.Accounts.CreateAccount(ctx, models.NewAccount(number, profile, initialBalance)); err != nil {
				return err
			}
			_, err = r.Credentials.CreateCredential(ctx, number, hash)
			return err
		})
		switch {
		case err == nil:
			s.log.Info("account created", zap.String("account", number), zap.Stringer("balance", initialBalance))
			return number, nil
		case errors.Is(err, errAccountNumberTaken), errors.Is(err, repository.ErrDuplicate):
			s.log.Debug("account number collision", zap.String("account", number), zap.Int("attempt", attempt))
		default:
			return "", classify("CreateAccount", err)
		}
	}
	return "", fmt.Errorf("CreateAccount: %w after %d attempts", ErrAccountNumberExhausted, maxAccountNumberAttempts)
}

// ListAccounts returns every account ordered by account number.
func (s *accountServiceImpl) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.store.Repositories().Accounts.ListAccounts(ctx)
	if err != nil {
		return nil, classify("ListAccounts", err)
	}
	return accounts, nil
}

func (s *accountServiceImpl) GetAccount(ctx context.Context, accountNumber string) (models.Account, error) {
	acc, err := s.store.Repositories().Accounts.GetAccount(ctx, accountNumber)
	if err != nil {
		return models.Account{}, classify("GetAccount", err)
	}
	return acc, nil
}

func (s *accountServiceImpl) GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	acc, err := s.store.Repositories().Accounts.GetAccount(ctx, accountNumber)
	if err != nil {
		return decimal.Zero, classify("GetBalance", err)
	}
	return acc.Balance, nil
}

// Credit adds amount to the balance and records a credit row.
func (s *accountServiceImpl) Credit(ctx context.Context, accountNumber string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.apply(ctx, "Credit", accountNumber, models.KindCredit, amount)
}

// Debit takes amount from the balance and records a debit row. The balance never
// goes below zero.
func (s *accountServiceImpl) Debit(ctx context.Context, accountNumber string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.apply(ctx, "Debit", accountNumber, models.KindDebit, amount)
}

// apply runs read balance, validate, write balance and append ledger row while the
// account row is locked.
func (s *accountServiceImpl) apply(ctx context.Context, op, accountNumber string, kind models.TransactionKind, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	var newBalance decimal.Decimal
	var txID int64
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		acc, err := r.Accounts.GetAccountForUpdate(ctx, accountNumber)
		if err != nil {
			return err
		}
		if !acc.IsActive() {
			return fmt.Errorf("%s: %w (account %s)", op, ErrAccountInactive, accountNumber)
		}
		if kind.Sign() < 0 && amount.GreaterThan(acc.Balance) {
			return fmt.Errorf("%s: %w (account %s, balance %s, amount %s)",
				op, ErrInsufficientFunds, accountNumber, acc.Balance, amount)
		}
		delta := amount
		if kind.Sign() < 0 {
			delta = amount.Neg()
		}
		if err := checkBalance(acc.Balance.Add(delta)); err != nil {
			return fmt.Errorf("%s: %w (account %s, balance %s, amount %s)", op, err, accountNumber, acc.Balance, amount)
		}
		if err := r.Accounts.AdjustBalance(ctx, accountNumber, delta); err != nil {
			return err
		}
		if txID, err = r.Transactions.Append(ctx, accountNumber, kind, amount, ""); err != nil {
			return err
		}
		newBalance = acc.Balance.Add(delta)
		return nil
	})
	if err != nil {
		return decimal.Zero, classify(op, err)
	}

	s.log.Info("balance updated",
		zap.String("account", accountNumber),
		zap.String("kind", string(kind)),
		zap.Stringer("amount", amount),
		zap.Stringer("balance", newBalance),
		zap.Int64("transaction_id", txID))
	return newBalance, nil
}

// SetStatus moves an account between active and inactive.
func (s *accountServiceImpl) SetStatus(ctx context.Context, accountNumber string, status models.AccountStatus) error {
	if !status.Valid() {
		return fmt.Errorf("SetStatus: %w", &FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)})
	}
	if err := s.store.Repositories().Accounts.SetStatus(ctx, accountNumber, status); err != nil {
		return classify("SetStatus", err)
	}
	s.log.Info("status changed", zap.String("account", accountNumber), zap.String("status", string(status)))
	return nil
}
