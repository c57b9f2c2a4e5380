// Package validation holds the input checks applied before any store mutation.
// Every predicate is pure and reports failure by returning false.
package validation

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Punctuation is the set of characters accepted as the "special" class of a password.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

const MinPasswordLength = 8

// ValidEmail is a shape check only: the address must contain '@' and '.' and be
// longer than five characters.
func ValidEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".") && utf8.RuneCountInString(s) > 5
}

// ValidPassword requires at least MinPasswordLength characters with an upper-case
// letter, a lower-case letter, a digit and a punctuation character.
func ValidPassword(s string) bool {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return false
	}
	var upper, lower, digit, punct bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(Punctuation, r):
			punct = true
		}
	}
	return upper && lower && digit && punct
}

// ValidContact accepts exactly ten ASCII digits.
func ValidContact(s string) bool {
	return len(s) == 10 && allDigits(s)
}

// ValidAccountNumber accepts the shape of generated account numbers: ten digits
// without a leading zero.
func ValidAccountNumber(s string) bool {
	return len(s) == 10 && s[0] != '0' && allDigits(s)
}

// AccountLookup is the read side of an account store.
type AccountLookup interface {
	AccountExists(ctx context.Context, accountNumber string) (bool, error)
}

// AccountNumberAvailable reports whether no account uses id.
func AccountNumberAvailable(ctx context.Context, id string, store AccountLookup) (bool, error) {
	exists, err := store.AccountExists(ctx, id)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// ParseDOB parses a YYYY-MM-DD date of birth. Dates after now are rejected.
func ParseDOB(s string, now time.Time) (time.Time, bool) {
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil || dob.After(now) {
		return time.Time{}, false
	}
	return dob, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
