package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account. Accounts are never deleted,
// they only move from active to inactive.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Profile holds the personal details collected at signup.
type Profile struct {
	Name          string
	DOB           time.Time
	City          string
	ContactNumber string
	Email         string
	Address       string
}

type Account struct {
	AccountNumber string
	Name          string
	DOB           time.Time
	City          string
	Balance       decimal.Decimal
	ContactNumber string
	Email         string
	Address       string
	Status        AccountStatus
}

// NewAccount builds an active account from a signup profile.
func NewAccount(accountNumber string, p Profile, balance decimal.Decimal) Account {
	return Account{
		AccountNumber: accountNumber,
		Name:          p.Name,
		DOB:           p.DOB,
		City:          p.City,
		Balance:       balance,
		ContactNumber: p.ContactNumber,
		Email:         p.Email,
		Address:       p.Address,
		Status:        StatusActive,
	}
}

// IsActive reports whether the account accepts balance mutations.
func (a Account) IsActive() bool {
	return a.Status == StatusActive
}
