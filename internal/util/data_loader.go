package util

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"banking-ledger/models"
)

// StatementLoader defines the interface for loading external bank statements.
type StatementLoader interface {
	LoadStatement(filePath string) ([]models.StatementEntry, error)
}

// csvStatementLoader implements StatementLoader for CSV files with the columns
// external_id,amount,kind,reference and a header row.
type csvStatementLoader struct {
	log *zap.Logger
}

// NewCSVStatementLoader creates a new CSV statement loader.
func NewCSVStatementLoader(log *zap.Logger) StatementLoader {
	return &csvStatementLoader{log: log.Named("statement")}
}

// LoadStatement reads statement rows from a CSV file.
func (l *csvStatementLoader) LoadStatement(filePath string) ([]models.StatementEntry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("LoadStatement: failed to open file %s: %w", filePath, err)
	}
	defer file.Close()
	return l.ReadStatement(file)
}

// ReadStatement parses statement rows from r. Malformed rows are skipped with a warning.
func (l *csvStatementLoader) ReadStatement(r io.Reader) ([]models.StatementEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	if _, err := reader.Read(); err != nil { // header row
		if errors.Is(err, io.EOF) {
			return []models.StatementEntry{}, nil
		}
		return nil, fmt.Errorf("ReadStatement: failed to read header: %w", err)
	}

	var entries []models.StatementEntry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadStatement: error reading record: %w", err)
		}
		if len(record) < 4 {
			l.log.Warn("skipping malformed statement record", zap.Strings("record", record))
			continue
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			l.log.Warn("skipping record with invalid amount", zap.String("amount", record[1]), zap.Error(err))
			continue
		}
		kind, ok := NormalizeStatementKind(record[2])
		if !ok {
			l.log.Warn("skipping record with unknown kind", zap.String("kind", record[2]))
			continue
		}

		entries = append(entries, models.StatementEntry{
			ExternalID: strings.TrimSpace(record[0]),
			Amount:     amount.Abs(),
			Kind:       kind,
			Reference:  strings.TrimSpace(record[3]),
		})
	}
	return entries, nil
}

// NormalizeStatementKind maps the kind column of a statement onto ledger kinds. Bank
// exports commonly use DEPOSIT/WITHDRAWAL/TRANSFER_OUT/TRANSFER_IN, so those are
// accepted alongside the ledger's own names.
func NormalizeStatementKind(s string) (models.TransactionKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDIT", "DEPOSIT":
		return models.KindCredit, true
	case "DEBIT", "WITHDRAWAL":
		return models.KindDebit, true
	case "TRANSFER", "TRANSFER_OUT":
		return models.KindTransfer, true
	case "RECEIVED", "TRANSFER_IN":
		return models.KindReceived, true
	}
	return "", false
}
