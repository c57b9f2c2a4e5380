// Package cli is the interactive text menu of the banking system.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"banking-ledger/internal/service"
	"banking-ledger/internal/session"
	"banking-ledger/internal/validation"
	"banking-ledger/models"
)

const mainMenu = `
=== Banking System ===
1. Add User
2. Show Users
3. Login
4. Exit
`

const sessionMenu = `
1. Show Balance
2. Credit Amount
3. Debit Amount
4. Logout
5. Transaction History
6. Transfer
`

// Menu reads choices line by line from in and writes prompts and results to out.
type Menu struct {
	in  *bufio.Scanner
	out io.Writer
	svc session.Services
	log *zap.Logger
	Now func() time.Time
	// MinOpeningDeposit is checked as soon as the initial balance is entered.
	MinOpeningDeposit decimal.Decimal
}

func New(in io.Reader, out io.Writer, svc session.Services, log *zap.Logger) *Menu {
	return &Menu{
		in:  bufio.NewScanner(in),
		out: out,
		svc: svc,
		log: log.Named("cli"),
		Now: time.Now,

		MinOpeningDeposit: decimal.NewFromInt(service.DefaultMinOpeningDeposit),
	}
}

// Run shows the main menu until the user exits or the input ends.
func (m *Menu) Run(ctx context.Context) error {
	for {
		fmt.Fprint(m.out, mainMenu)
		choice, ok := m.prompt("Enter your choice: ")
		if !ok {
			return m.in.Err()
		}
		switch choice {
		case "1":
			m.addUser(ctx)
		case "2":
			m.showUsers(ctx)
		case "3":
			if !m.login(ctx) {
				return m.in.Err()
			}
		case "4":
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice!")
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// addUser asks for the signup fields one at a time and stops at the first answer
// that fails its check.
func (m *Menu) addUser(ctx context.Context) {
	fmt.Fprintln(m.out, "=== Add User ===")
	var (
		p        models.Profile
		password string
		balance  decimal.Decimal
	)
	steps := []struct {
		label string
		check func(v string) string // returns the rejection message, or ""
	}{
		{"Name: ", func(v string) string {
			p.Name = v
			if v == "" {
				return "Invalid name: must not be empty."
			}
			return ""
		}},
		{"Date of Birth (YYYY-MM-DD): ", func(v string) string {
			var ok bool
			if p.DOB, ok = validation.ParseDOB(v, m.Now()); !ok {
				return "Invalid date of birth. Use YYYY-MM-DD and a date in the past."
			}
			return ""
		}},
		{"City: ", func(v string) string {
			p.City = v
			return ""
		}},
		{"Password: ", func(v string) string {
			password = v
			if !validation.ValidPassword(v) {
				return "Invalid password. Password must be at least 8 characters, with upper, lower, digit, and special character."
			}
			return ""
		}},
		{fmt.Sprintf("Initial Balance (Min %s): ", m.MinOpeningDeposit), func(v string) string {
			var err error
			if balance, err = decimal.NewFromString(v); err != nil {
				return "Invalid amount."
			}
			if balance.LessThan(m.MinOpeningDeposit) {
				return fmt.Sprintf("Initial balance must be at least %s.", m.MinOpeningDeposit)
			}
			return ""
		}},
		{"Contact Number (10 digits): ", func(v string) string {
			p.ContactNumber = v
			if !validation.ValidContact(v) {
				return "Invalid contact number."
			}
			return ""
		}},
		{"Email ID: ", func(v string) string {
			p.Email = v
			if !validation.ValidEmail(v) {
				return "Invalid email address."
			}
			return ""
		}},
		{"Address: ", func(v string) string {
			p.Address = v
			return ""
		}},
	}
	for _, step := range steps {
		v, ok := m.prompt(step.label)
		if !ok {
			return
		}
		if msg := step.check(v); msg != "" {
			fmt.Fprintln(m.out, msg)
			return
		}
	}

	number, err := m.svc.Accounts.CreateAccount(ctx, p, password, balance)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out, "User added successfully! Account Number: %s\n", number)
}

func (m *Menu) showUsers(ctx context.Context) {
	fmt.Fprintln(m.out, "=== Show Users ===")
	accounts, err := m.svc.Accounts.ListAccounts(ctx)
	if err != nil {
		m.fail(err)
		return
	}
	if len(accounts) == 0 {
		fmt.Fprintln(m.out, "No users found.")
		return
	}
	for _, a := range accounts {
		fmt.Fprintf(m.out, "\nAccount Number: %s\nName: %s\nDOB: %s\nCity: %s\nBalance: %s\nContact Number: %s\nEmail ID: %s\nAddress: %s\nStatus: %s\n",
			a.AccountNumber, a.Name, a.DOB.Format(time.DateOnly), a.City, a.Balance.StringFixed(2),
			a.ContactNumber, a.Email, a.Address, a.Status)
	}
}

// login returns false when the input ended during the session.
func (m *Menu) login(ctx context.Context) bool {
	fmt.Fprintln(m.out, "=== Login ===")
	number, ok := m.prompt("Account Number: ")
	if !ok {
		return false
	}
	password, ok := m.prompt("Password: ")
	if !ok {
		return false
	}

	s := session.New(m.svc, m.log)
	if err := s.Login(ctx, number, password); err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			fmt.Fprintln(m.out, "Invalid credentials!")
		} else {
			m.fail(err)
		}
		return true
	}
	fmt.Fprintf(m.out, "Login successful! Account: %s\n", number)
	return m.sessionLoop(ctx, s)
}

func (m *Menu) sessionLoop(ctx context.Context, s *session.Session) bool {
	defer func() {
		// Logout fails only if the session is already logged out.
		if err := s.Logout(); err != nil {
			m.log.Debug("logout on menu exit", zap.Error(err))
		}
	}()
	for {
		fmt.Fprint(m.out, sessionMenu)
		choice, ok := m.prompt("Enter your choice: ")
		if !ok {
			return false
		}
		switch choice {
		case "1":
			if b, err := s.Balance(ctx); err != nil {
				m.fail(err)
			} else {
				fmt.Fprintf(m.out, "Balance: %s\n", b.StringFixed(2))
			}
		case "2":
			amount, ok := m.amount("Enter amount to credit: ")
			if !ok {
				continue
			}
			if _, err := s.Credit(ctx, amount); err != nil {
				m.fail(err)
			} else {
				fmt.Fprintf(m.out, "%s credited successfully!\n", amount.StringFixed(2))
			}
		case "3":
			amount, ok := m.amount("Enter amount to debit: ")
			if !ok {
				continue
			}
			if _, err := s.Debit(ctx, amount); err != nil {
				m.fail(err)
			} else {
				fmt.Fprintf(m.out, "%s debited successfully!\n", amount.StringFixed(2))
			}
		case "4":
			fmt.Fprintln(m.out, "Logged out!")
			return true
		case "5":
			m.history(ctx, s)
		case "6":
			to, ok := m.prompt("Recipient Account Number: ")
			if !ok {
				return false
			}
			amount, ok := m.amount("Enter amount to transfer: ")
			if !ok {
				continue
			}
			if err := s.Transfer(ctx, to, amount); err != nil {
				m.fail(err)
			} else {
				fmt.Fprintf(m.out, "%s transferred to %s successfully!\n", amount.StringFixed(2), to)
			}
		default:
			fmt.Fprintln(m.out, "Invalid choice!")
		}
	}
}

func (m *Menu) history(ctx context.Context, s *session.Session) {
	txs, err := s.History(ctx)
	if err != nil {
		m.fail(err)
		return
	}
	if len(txs) == 0 {
		fmt.Fprintln(m.out, "No transactions yet.")
		return
	}
	fmt.Fprintln(m.out, "=== Transaction History ===")
	for _, tx := range txs {
		line := fmt.Sprintf("#%d %s %-8s %s", tx.ID, tx.CreatedAt.Format(time.DateTime), tx.Kind, tx.Amount.StringFixed(2))
		if tx.Counterparty != "" {
			line += " (" + tx.Counterparty + ")"
		}
		fmt.Fprintln(m.out, line)
	}
}

// amount reads a decimal. An unparsable entry is reported and yields ok=false.
func (m *Menu) amount(label string) (decimal.Decimal, bool) {
	v, ok := m.prompt(label)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid amount.")
		return decimal.Zero, false
	}
	return d, true
}

func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

// fail prints a user-facing message for err. Storage failures are also logged.
func (m *Menu) fail(err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		fmt.Fprintf(m.out, "Invalid %s: %s.\n", fe.Field, fe.Message)
	case errors.Is(err, service.ErrInsufficientInitialDeposit):
		fmt.Fprintln(m.out, "Initial balance is below the minimum opening deposit.")
	case errors.Is(err, service.ErrInvalidAmount):
		fmt.Fprintln(m.out, "Amount must be positive with at most two decimal places.")
	case errors.Is(err, service.ErrInsufficientFunds):
		fmt.Fprintln(m.out, "Insufficient balance!")
	case errors.Is(err, service.ErrAccountNotFound):
		fmt.Fprintln(m.out, "Account not found.")
	case errors.Is(err, service.ErrAccountInactive):
		fmt.Fprintln(m.out, "Account is inactive.")
	case errors.Is(err, service.ErrSameAccountTransfer):
		fmt.Fprintln(m.out, "Cannot transfer to the same account.")
	default:
		m.log.Error("operation failed", zap.Error(err))
		fmt.Fprintf(m.out, "Error: %v\n", err)
	}
}
