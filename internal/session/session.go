// Package session holds the logged-in state of a single customer on top of the
// account, credential and ledger services.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"banking-ledger/internal/service"
	"banking-ledger/models"
)

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("already logged in")
)

// State is either LoggedOut or LoggedIn.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged in"
	}
	return "logged out"
}

// Services bundles what a session drives.
type Services struct {
	Accounts service.AccountService
	Auth     service.AuthService
	Ledger   service.TransactionService
}

// Session is bound to at most one account at a time. Account operations are only
// allowed while logged in and always act on the bound account.
type Session struct {
	id  string
	svc Services
	log *zap.Logger

	mu      sync.Mutex
	account string
}

// New returns a logged-out session with a fresh random id.
func New(svc Services, log *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{id: id, svc: svc, log: log.Named("session").With(zap.String("session", id))}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == "" {
		return LoggedOut
	}
	return LoggedIn
}

// Account returns the bound account number and whether the session is logged in.
func (s *Session) Account() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.account != ""
}

// Login binds the session to accountNumber if password matches. A failed attempt
// leaves the session logged out and returns service.ErrAuthenticationFailed.
func (s *Session) Login(ctx context.Context, accountNumber, password string) error {
	if _, ok := s.Account(); ok {
		return fmt.Errorf("Login: %w", ErrAlreadyLoggedIn)
	}
	ok, err := s.svc.Auth.Authenticate(ctx, accountNumber, password)
	if err != nil {
		return fmt.Errorf("Login: %w", err)
	}
	if !ok {
		return fmt.Errorf("Login: %w", service.ErrAuthenticationFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account != "" {
		return fmt.Errorf("Login: %w", ErrAlreadyLoggedIn)
	}
	s.account = accountNumber
	s.log.Info("logged in", zap.String("account", accountNumber))
	return nil
}

func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == "" {
		return fmt.Errorf("Logout: %w", ErrNotLoggedIn)
	}
	s.log.Info("logged out", zap.String("account", s.account))
	s.account = ""
	return nil
}

func (s *Session) Balance(ctx context.Context) (decimal.Decimal, error) {
	account, err := s.bound("Balance")
	if err != nil {
		return decimal.Zero, err
	}
	return s.svc.Accounts.GetBalance(ctx, account)
}

// Credit returns the balance after the credit.
func (s *Session) Credit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	account, err := s.bound("Credit")
	if err != nil {
		return decimal.Zero, err
	}
	return s.svc.Accounts.Credit(ctx, account, amount)
}

// Debit returns the balance after the debit.
func (s *Session) Debit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	account, err := s.bound("Debit")
	if err != nil {
		return decimal.Zero, err
	}
	return s.svc.Accounts.Debit(ctx, account, amount)
}

// Transfer moves amount from the bound account to toAccount.
func (s *Session) Transfer(ctx context.Context, toAccount string, amount decimal.Decimal) error {
	account, err := s.bound("Transfer")
	if err != nil {
		return err
	}
	return s.svc.Ledger.TransferFunds(ctx, account, toAccount, amount)
}

func (s *Session) History(ctx context.Context) ([]models.Transaction, error) {
	account, err := s.bound("History")
	if err != nil {
		return nil, err
	}
	return s.svc.Ledger.History(ctx, account)
}

func (s *Session) bound(op string) (string, error) {
	account, ok := s.Account()
	if !ok {
		return "", fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
	}
	return account, nil
}
