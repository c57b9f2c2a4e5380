package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"banking-ledger/internal/util"
	"banking-ledger/models"
)

// ReconciliationService compares an account's ledger with an external statement.
type ReconciliationService interface {
	Reconcile(ctx context.Context, accountNumber, statementPath string) (ReconciliationReport, error)
}

// Match pairs a ledger row with the statement row it was matched to.
type Match struct {
	Ledger    models.Transaction
	Statement models.StatementEntry
}

type ReconciliationReport struct {
	AccountNumber    string
	Matched          []Match // same kind and amount
	AmountMismatches []Match // same kind, different amount
	OnlyInLedger     []models.Transaction
	OnlyInStatement  []models.StatementEntry
}

// Clean reports whether every row on both sides matched exactly.
func (r ReconciliationReport) Clean() bool {
	return len(r.AmountMismatches) == 0 && len(r.OnlyInLedger) == 0 && len(r.OnlyInStatement) == 0
}

// reconciliationServiceImpl implements ReconciliationService.
type reconciliationServiceImpl struct {
	ledger TransactionService
	loader util.StatementLoader
	log    *zap.Logger
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(ledger TransactionService, loader util.StatementLoader, log *zap.Logger) ReconciliationService {
	return &reconciliationServiceImpl{ledger: ledger, loader: loader, log: log.Named("reconcile")}
}

// Reconcile loads the statement and matches it against the account's history.
func (s *reconciliationServiceImpl) Reconcile(ctx context.Context, accountNumber, statementPath string) (ReconciliationReport, error) {
	entries, err := s.loader.LoadStatement(statementPath)
	if err != nil {
		return ReconciliationReport{}, fmt.Errorf("Reconcile: failed to load statement: %w", err)
	}
	history, err := s.ledger.History(ctx, accountNumber)
	if err != nil {
		return ReconciliationReport{}, fmt.Errorf("Reconcile: %w", err)
	}
	s.log.Info("reconciling",
		zap.String("account", accountNumber),
		zap.Int("ledger_rows", len(history)),
		zap.Int("statement_rows", len(entries)))

	report := MatchStatement(history, entries)
	report.AccountNumber = accountNumber
	return report, nil
}

// MatchStatement pairs ledger rows with statement rows: first on kind and amount,
// then, for ledger rows still unmatched, on kind alone. Each row is used at most once.
func MatchStatement(ledger []models.Transaction, statement []models.StatementEntry) ReconciliationReport {
	var report ReconciliationReport
	usedLedger := make([]bool, len(ledger))
	usedStatement := make([]bool, len(statement))

	for i, tx := range ledger {
		for j, entry := range statement {
			if usedStatement[j] || entry.Kind != tx.Kind || !entry.Amount.Equal(tx.Amount) {
				continue
			}
			report.Matched = append(report.Matched, Match{Ledger: tx, Statement: entry})
			usedLedger[i], usedStatement[j] = true, true
			break
		}
	}
	for i, tx := range ledger {
		if usedLedger[i] {
			continue
		}
		for j, entry := range statement {
			if usedStatement[j] || entry.Kind != tx.Kind {
				continue
			}
			report.AmountMismatches = append(report.AmountMismatches, Match{Ledger: tx, Statement: entry})
			usedLedger[i], usedStatement[j] = true, true
			break
		}
	}

	for i, tx := range ledger {
		if !usedLedger[i] {
			report.OnlyInLedger = append(report.OnlyInLedger, tx)
		}
	}
	for j, entry := range statement {
		if !usedStatement[j] {
			report.OnlyInStatement = append(report.OnlyInStatement, entry)
		}
	}
	return report
}

// WriteTo prints the report in plain text.
func (r ReconciliationReport) WriteTo(w io.Writer) (int64, error) {
	pw := &countingWriter{w: w}
	fmt.Fprintf(pw, "\n--- Reconciliation Report: account %s ---\n", r.AccountNumber)

	fmt.Fprintln(pw, "\n[Found in Both (Exact Match on Kind & Amount)]")
	for _, m := range r.Matched {
		fmt.Fprintf(pw, "  MATCH: ledger #%d (%s %s) with statement %s (%s %s, Ref: %s)\n",
			m.Ledger.ID, m.Ledger.Amount.StringFixed(2), m.Ledger.Kind,
			m.Statement.ExternalID, m.Statement.Amount.StringFixed(2), m.Statement.Kind, m.Statement.Reference)
	}
	if len(r.Matched) == 0 {
		fmt.Fprintln(pw, "  None")
	}

	fmt.Fprintln(pw, "\n[Potential Matches with Mismatched Amounts (Same Kind)]")
	for _, m := range r.AmountMismatches {
		fmt.Fprintf(pw, "  MISMATCH_AMOUNT: ledger #%d (%s %s) vs statement %s (%s %s, Ref: %s)\n",
			m.Ledger.ID, m.Ledger.Amount.StringFixed(2), m.Ledger.Kind,
			m.Statement.ExternalID, m.Statement.Amount.StringFixed(2), m.Statement.Kind, m.Statement.Reference)
	}
	if len(r.AmountMismatches) == 0 {
		fmt.Fprintln(pw, "  None")
	}

	fmt.Fprintln(pw, "\n[Only in Ledger]")
	for _, tx := range r.OnlyInLedger {
		fmt.Fprintf(pw, "  ledger #%d, Kind: %s, Amount: %s, At: %s\n",
			tx.ID, tx.Kind, tx.Amount.StringFixed(2), tx.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if len(r.OnlyInLedger) == 0 {
		fmt.Fprintln(pw, "  None")
	}

	fmt.Fprintln(pw, "\n[Only in Statement]")
	for _, e := range r.OnlyInStatement {
		fmt.Fprintf(pw, "  statement %s, Kind: %s, Amount: %s, Ref: %s\n",
			e.ExternalID, e.Kind, e.Amount.StringFixed(2), e.Reference)
	}
	if len(r.OnlyInStatement) == 0 {
		fmt.Fprintln(pw, "  None")
	}
	fmt.Fprintln(pw, "\n--- End of Reconciliation Report ---")
	return pw.n, pw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
