package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"banking-ledger/models"
)

// memoryState is the whole content of a MemoryStore.
type memoryState struct {
	accounts         map[string]models.Account
	credentials      map[string]models.Credential
	transactions     []models.Transaction
	nextCredentialID int64
	lastTimestamp    time.Time
}

func newMemoryState() *memoryState {
	return &memoryState{
		accounts:    make(map[string]models.Account),
		credentials: make(map[string]models.Credential),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		accounts:         maps.Clone(s.accounts),
		credentials:      make(map[string]models.Credential, len(s.credentials)),
		transactions:     slices.Clone(s.transactions),
		nextCredentialID: s.nextCredentialID,
		lastTimestamp:    s.lastTimestamp,
	}
	for k, v := range s.credentials {
		v.PasswordHash = slices.Clone(v.PasswordHash)
		if v.LastLogin != nil {
			t := *v.LastLogin
			v.LastLogin = &t
		}
		c.credentials[k] = v
	}
	return c
}

// MemoryStore keeps accounts, credentials and the ledger in process memory. A single
// mutex serialises every unit of work; a unit runs against a copy of the state that
// replaces the live state only on success.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState(), now: time.Now}
}

// Repositories returns repositories where every call is its own unit of work.
// Repository methods validate before they mutate, so no copy is needed here.
func (m *MemoryStore) Repositories() Repositories {
	return m.repositories(func(fn func(*memoryState) error) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		return fn(m.state)
	})
}

// WithinTx runs fn with exclusive access to a working copy of the state.
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(r Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("WithinTx: %w", err)
	}
	work := m.state.clone()
	repos := m.repositories(func(f func(*memoryState) error) error {
		return f(work)
	})
	if err := fn(repos); err != nil {
		return err
	}
	m.state = work
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) repositories(view func(func(*memoryState) error) error) Repositories {
	return Repositories{
		Accounts:     &memoryAccountRepository{view: view},
		Credentials:  &memoryCredentialRepository{view: view},
		Transactions: &memoryTransactionRepository{view: view, now: m.now},
	}
}

type memoryAccountRepository struct {
	view func(func(*memoryState) error) error
}

func (r *memoryAccountRepository) CreateAccount(_ context.Context, acc models.Account) error {
	return r.view(func(s *memoryState) error {
		if _, ok := s.accounts[acc.AccountNumber]; ok {
			return fmt.Errorf("CreateAccount: %w: %s", ErrDuplicate, acc.AccountNumber)
		}
		if acc.Status == "" {
			acc.Status = models.StatusActive
		}
		s.accounts[acc.AccountNumber] = acc
		return nil
	})
}

func (r *memoryAccountRepository) GetAccount(_ context.Context, accountNumber string) (models.Account, error) {
	var acc models.Account
	err := r.view(func(s *memoryState) error {
		a, ok := s.accounts[accountNumber]
		if !ok {
			return fmt.Errorf("GetAccount: %w", ErrNotFound)
		}
		acc = a
		return nil
	})
	return acc, err
}

// GetAccountForUpdate needs no extra locking: the store mutex is already held.
func (r *memoryAccountRepository) GetAccountForUpdate(ctx context.Context, accountNumber string) (models.Account, error) {
	return r.GetAccount(ctx, accountNumber)
}

func (r *memoryAccountRepository) AccountExists(_ context.Context, accountNumber string) (bool, error) {
	var ok bool
	err := r.view(func(s *memoryState) error {
		_, ok = s.accounts[accountNumber]
		return nil
	})
	return ok, err
}

func (r *memoryAccountRepository) ListAccounts(_ context.Context) ([]models.Account, error) {
	var out []models.Account
	err := r.view(func(s *memoryState) error {
		out = make([]models.Account, 0, len(s.accounts))
		for _, a := range s.accounts {
			out = append(out, a)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
		return nil
	})
	return out, err
}

func (r *memoryAccountRepository) AdjustBalance(_ context.Context, accountNumber string, delta decimal.Decimal) error {
	return r.view(func(s *memoryState) error {
		a, ok := s.accounts[accountNumber]
		if !ok {
			return fmt.Errorf("AdjustBalance: %w: account %s", ErrNotFound, accountNumber)
		}
		next := a.Balance.Add(delta)
		if next.IsNegative() {
			// Mirrors the CHECK (balance >= 0) constraint of the SQL schema.
			return fmt.Errorf("AdjustBalance: balance of %s would become %s", accountNumber, next)
		}
		a.Balance = next
		s.accounts[accountNumber] = a
		return nil
	})
}

func (r *memoryAccountRepository) SetStatus(_ context.Context, accountNumber string, status models.AccountStatus) error {
	return r.view(func(s *memoryState) error {
		a, ok := s.accounts[accountNumber]
		if !ok {
			return fmt.Errorf("SetStatus: %w: account %s", ErrNotFound, accountNumber)
		}
		a.Status = status
		s.accounts[accountNumber] = a
		return nil
	})
}

type memoryCredentialRepository struct {
	view func(func(*memoryState) error) error
}

func (r *memoryCredentialRepository) CreateCredential(_ context.Context, accountNumber string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.view(func(s *memoryState) error {
		if _, ok := s.accounts[accountNumber]; !ok {
			return fmt.Errorf("CreateCredential: no account %s", accountNumber)
		}
		if _, ok := s.credentials[accountNumber]; ok {
			return fmt.Errorf("CreateCredential: %w: %s", ErrDuplicate, accountNumber)
		}
		s.nextCredentialID++
		id = s.nextCredentialID
		s.credentials[accountNumber] = models.Credential{
			ID:            id,
			AccountNumber: accountNumber,
			PasswordHash:  slices.Clone(passwordHash),
		}
		return nil
	})
	return id, err
}

func (r *memoryCredentialRepository) GetCredential(_ context.Context, accountNumber string) (models.Credential, error) {
	var c models.Credential
	err := r.view(func(s *memoryState) error {
		cred, ok := s.credentials[accountNumber]
		if !ok {
			return fmt.Errorf("GetCredential: %w: account %s", ErrNotFound, accountNumber)
		}
		c = cred
		c.PasswordHash = slices.Clone(cred.PasswordHash)
		if cred.LastLogin != nil {
			t := *cred.LastLogin
			c.LastLogin = &t
		}
		return nil
	})
	return c, err
}

func (r *memoryCredentialRepository) UpdatePasswordHash(_ context.Context, accountNumber string, passwordHash []byte) error {
	return r.view(func(s *memoryState) error {
		c, ok := s.credentials[accountNumber]
		if !ok {
			return fmt.Errorf("UpdatePasswordHash: %w", ErrNotFound)
		}
		c.PasswordHash = slices.Clone(passwordHash)
		s.credentials[accountNumber] = c
		return nil
	})
}

func (r *memoryCredentialRepository) TouchLastLogin(_ context.Context, accountNumber string, at time.Time) error {
	return r.view(func(s *memoryState) error {
		c, ok := s.credentials[accountNumber]
		if !ok {
			return fmt.Errorf("TouchLastLogin: %w", ErrNotFound)
		}
		c.LastLogin = &at
		s.credentials[accountNumber] = c
		return nil
	})
}

type memoryTransactionRepository struct {
	view func(func(*memoryState) error) error
	now  func() time.Time
}

func (r *memoryTransactionRepository) Append(_ context.Context, accountNumber string, kind models.TransactionKind, amount decimal.Decimal, counterparty string) (int64, error) {
	var id int64
	err := r.view(func(s *memoryState) error {
		if _, ok := s.accounts[accountNumber]; !ok {
			return fmt.Errorf("Append: no account %s", accountNumber)
		}
		if !kind.Valid() {
			return fmt.Errorf("Append: invalid kind %q", kind)
		}
		ts := r.now()
		if ts.Before(s.lastTimestamp) {
			ts = s.lastTimestamp
		}
		s.lastTimestamp = ts
		id = int64(len(s.transactions)) + 1
		s.transactions = append(s.transactions, models.Transaction{
			ID:            id,
			AccountNumber: accountNumber,
			Kind:          kind,
			Amount:        amount,
			Counterparty:  counterparty,
			CreatedAt:     ts,
		})
		return nil
	})
	return id, err
}

func (r *memoryTransactionRepository) Get(_ context.Context, transactionID int64) (models.Transaction, error) {
	var tx models.Transaction
	err := r.view(func(s *memoryState) error {
		if transactionID < 1 || transactionID > int64(len(s.transactions)) {
			return fmt.Errorf("Get: %w: transaction %d", ErrNotFound, transactionID)
		}
		tx = s.transactions[transactionID-1]
		return nil
	})
	return tx, err
}

func (r *memoryTransactionRepository) History(_ context.Context, accountNumber string) ([]models.Transaction, error) {
	var out []models.Transaction
	err := r.view(func(s *memoryState) error {
		for _, tx := range s.transactions {
			if tx.AccountNumber == accountNumber {
				out = append(out, tx)
			}
		}
		return nil
	})
	return out, err
}
