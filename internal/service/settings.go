package service

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultMinOpeningDeposit is the smallest balance an account can be opened with.
	DefaultMinOpeningDeposit = 2000

	maxAccountNumberAttempts = 16
	accountNumberMin         = 1_000_000_000
	accountNumberSpan        = 9_000_000_000
)

// maxAmount is the first value that no longer fits a DECIMAL(15,2) column.
var maxAmount = decimal.New(1, 13)

// Settings tunes the services. Zero fields fall back to defaults.
type Settings struct {
	MinOpeningDeposit     decimal.Decimal
	BcryptCost            int
	GenerateAccountNumber func() string
	Now                   func() time.Time
}

func (s Settings) withDefaults() Settings {
	if s.MinOpeningDeposit.IsZero() {
		s.MinOpeningDeposit = decimal.NewFromInt(DefaultMinOpeningDeposit)
	}
	if s.BcryptCost == 0 {
		s.BcryptCost = bcrypt.DefaultCost
	}
	if s.GenerateAccountNumber == nil {
		s.GenerateAccountNumber = RandomAccountNumber
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

// RandomAccountNumber draws a ten-digit number without a leading zero.
func RandomAccountNumber() string {
	return strconv.FormatInt(accountNumberMin+rand.Int64N(accountNumberSpan), 10)
}

// checkAmount accepts positive amounts with at most two decimal places that fit the
// balance column.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) || !amount.LessThan(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// checkBalance rejects a resulting balance the balance column cannot hold.
func checkBalance(balance decimal.Decimal) error {
	if !balance.LessThan(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}
