package models

import "time"

// Credential is the authentication material bound to an account. It is kept apart
// from Account so login can change without touching profile data.
type Credential struct {
	ID            int64
	AccountNumber string
	PasswordHash  []byte
	LastLogin     *time.Time // nil until the first successful login
}
