package service

import (
	"strings"
	"time"

	"banking-ledger/internal/validation"
	"banking-ledger/models"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const maxPasswordBytes = 72

// validateSignup applies the signup checks in the order the menu asks for them.
func validateSignup(p models.Profile, password string, now time.Time) error {
	if strings.TrimSpace(p.Name) == "" {
		return &FieldError{Field: "name", Message: "must not be empty"}
	}
	if p.DOB.IsZero() || p.DOB.After(now) {
		return &FieldError{Field: "date of birth", Message: "must be a past date"}
	}
	if err := checkPassword(password); err != nil {
		return err
	}
	if !validation.ValidContact(p.ContactNumber) {
		return &FieldError{Field: "contact number", Message: "must be exactly 10 digits"}
	}
	if !validation.ValidEmail(p.Email) {
		return &FieldError{Field: "email", Message: "must contain '@' and '.' and be longer than 5 characters"}
	}
	return nil
}

func checkPassword(password string) error {
	if !validation.ValidPassword(password) || len(password) > maxPasswordBytes {
		return &FieldError{
			Field:   "password",
			Message: "must be 8 to 72 characters, with upper, lower, digit, and special character",
		}
	}
	return nil
}
