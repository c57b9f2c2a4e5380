package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrSessionActive  = errors.New("account already has an active session")
	ErrUnknownSession = errors.New("unknown session")
)

// Registry tracks the open sessions of a server process. An account can be bound to
// at most one of them.
type Registry struct {
	svc Services
	log *zap.Logger

	mu        sync.Mutex
	byID      map[string]*Session
	byAccount map[string]string
}

func NewRegistry(svc Services, log *zap.Logger) *Registry {
	return &Registry{
		svc:       svc,
		log:       log,
		byID:      make(map[string]*Session),
		byAccount: make(map[string]string),
	}
}

// Login authenticates and registers a new session for accountNumber.
func (r *Registry) Login(ctx context.Context, accountNumber, password string) (*Session, error) {
	if r.active(accountNumber) {
		return nil, fmt.Errorf("Login: %w (account %s)", ErrSessionActive, accountNumber)
	}

	s := New(r.svc, r.log)
	if err := s.Login(ctx, accountNumber, password); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another login for the same account may have finished while we were hashing.
	if _, ok := r.byAccount[accountNumber]; ok {
		return nil, fmt.Errorf("Login: %w (account %s)", ErrSessionActive, accountNumber)
	}
	r.byID[s.ID()] = s
	r.byAccount[accountNumber] = s.ID()
	return s, nil
}

// Get returns the logged-in session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("Get: %w", ErrUnknownSession)
	}
	return s, nil
}

// Logout ends the session and frees its account for a new login.
func (r *Registry) Logout(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("Logout: %w", ErrUnknownSession)
	}
	account, _ := s.Account()
	if err := s.Logout(); err != nil {
		return err
	}
	delete(r.byID, id)
	delete(r.byAccount, account)
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *Registry) active(accountNumber string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byAccount[accountNumber]
	return ok
}
