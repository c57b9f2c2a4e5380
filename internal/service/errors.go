package service

import (
	"errors"
	"fmt"

	"banking-ledger/repository"
)

// Define custom errors for the service layer
var (
	ErrValidation                 = errors.New("validation failed")
	ErrInvalidAmount              = fmt.Errorf("%w: amount must be positive with at most two decimal places", ErrValidation)
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrInsufficientInitialDeposit = errors.New("initial deposit below minimum")
	ErrAccountNotFound            = errors.New("account not found")
	ErrAccountInactive            = errors.New("account is inactive")
	ErrAuthenticationFailed       = errors.New("authentication failed")
	ErrStorageFailure             = errors.New("storage failure")
	ErrSameAccountTransfer        = errors.New("cannot transfer funds to the same account")
	ErrAccountNumberExhausted     = errors.New("could not allocate a unique account number")
)

// FieldError reports a rejected input field. It matches ErrValidation under errors.Is.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

var domainErrors = []error{
	ErrValidation,
	ErrInsufficientFunds,
	ErrInsufficientInitialDeposit,
	ErrAccountNotFound,
	ErrAccountInactive,
	ErrAuthenticationFailed,
	ErrSameAccountTransfer,
	ErrAccountNumberExhausted,
}

// classify turns an error that escaped a unit of work into the service taxonomy.
// Domain errors pass through; a missing row becomes ErrAccountNotFound; anything
// else is a storage failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}
