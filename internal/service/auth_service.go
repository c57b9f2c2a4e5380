package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"banking-ledger/models"
	"banking-ledger/repository"
)

// AuthService checks credentials. Passwords are only ever stored as bcrypt hashes.
type AuthService interface {
	// Authenticate reports whether password matches the account's credential. A
	// successful match records the login time; a mismatch changes nothing.
	Authenticate(ctx context.Context, accountNumber, password string) (bool, error)
	ChangePassword(ctx context.Context, accountNumber, oldPassword, newPassword string) error
	LastLogin(ctx context.Context, accountNumber string) (*time.Time, error)
}

type authServiceImpl struct {
	store    repository.Store
	settings Settings
	log      *zap.Logger
}

// NewAuthService creates a new credential service.
func NewAuthService(store repository.Store, settings Settings, log *zap.Logger) AuthService {
	return &authServiceImpl{
		store:    store,
		settings: settings.withDefaults(),
		log:      log.Named("auth"),
	}
}

func (s *authServiceImpl) Authenticate(ctx context.Context, accountNumber, password string) (bool, error) {
	repos := s.store.Repositories()
	cred, ok, err := s.verify(ctx, repos, accountNumber, password)
	if err != nil || !ok {
		return false, err
	}
	if err := repos.Credentials.TouchLastLogin(ctx, cred.AccountNumber, s.settings.Now().UTC()); err != nil {
		return false, classify("Authenticate", err)
	}
	s.log.Info("login succeeded", zap.String("account", accountNumber))
	return true, nil
}

func (s *authServiceImpl) ChangePassword(ctx context.Context, accountNumber, oldPassword, newPassword string) error {
	repos := s.store.Repositories()
	_, ok, err := s.verify(ctx, repos, accountNumber, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ChangePassword: %w", ErrAuthenticationFailed)
	}
	if err := checkPassword(newPassword); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.settings.BcryptCost)
	if err != nil {
		return fmt.Errorf("ChangePassword: hash password: %w", err)
	}
	if err := repos.Credentials.UpdatePasswordHash(ctx, accountNumber, hash); err != nil {
		return classify("ChangePassword", err)
	}
	s.log.Info("password changed", zap.String("account", accountNumber))
	return nil
}

func (s *authServiceImpl) LastLogin(ctx context.Context, accountNumber string) (*time.Time, error) {
	cred, err := s.store.Repositories().Credentials.GetCredential(ctx, accountNumber)
	if err != nil {
		return nil, classify("LastLogin", err)
	}
	return cred.LastLogin, nil
}

// verify compares password against the stored hash. Unknown accounts are reported
// as a plain mismatch.
func (s *authServiceImpl) verify(ctx context.Context, repos repository.Repositories, accountNumber, password string) (models.Credential, bool, error) {
	cred, err := repos.Credentials.GetCredential(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("login rejected", zap.String("account", accountNumber), zap.String("reason", "unknown account"))
			return cred, false, nil
		}
		return cred, false, classify("Authenticate", err)
	}
	err = bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password))
	switch {
	case err == nil:
		return cred, true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		s.log.Info("login rejected", zap.String("account", accountNumber), zap.String("reason", "password mismatch"))
		return cred, false, nil
	default:
		return cred, false, fmt.Errorf("Authenticate: %w: stored hash unusable: %w", ErrStorageFailure, err)
	}
}
