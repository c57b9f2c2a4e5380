// Package cdc follows the MySQL binlog and turns ledger inserts into transactions.
package cdc

import (
	"fmt"
	"time"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/shopspring/decimal"

	"banking-ledger/models"
)

const ledgerTable = "transactions"

// Column positions of the ledger table, in CREATE TABLE order.
const (
	colID = iota
	colAccount
	colKind
	colAmount
	colCounterparty
	colCreatedAt
	ledgerColumns
)

const binlogTimeLayout = "2006-01-02 15:04:05.999999"

// IsInsert reports whether eventType carries newly written rows.
func IsInsert(eventType replication.EventType) bool {
	switch eventType {
	case replication.WRITE_ROWS_EVENTv0, replication.WRITE_ROWS_EVENTv1, replication.WRITE_ROWS_EVENTv2:
		return true
	}
	return false
}

// DecodeRows returns the ledger rows inserted by e. Events for other schemas or
// tables, and updates or deletes, yield nothing.
func DecodeRows(schema string, eventType replication.EventType, e *replication.RowsEvent) ([]models.Transaction, error) {
	if e == nil || e.Table == nil || !IsInsert(eventType) {
		return nil, nil
	}
	if string(e.Table.Schema) != schema || string(e.Table.Table) != ledgerTable {
		return nil, nil
	}

	out := make([]models.Transaction, 0, len(e.Rows))
	for i, row := range e.Rows {
		tx, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("DecodeRows: row %d: %w", i, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func decodeRow(row []any) (models.Transaction, error) {
	var tx models.Transaction
	if len(row) < ledgerColumns {
		return tx, fmt.Errorf("expected %d columns, got %d", ledgerColumns, len(row))
	}

	var err error
	if tx.ID, err = toInt64(row[colID]); err != nil {
		return tx, fmt.Errorf("id: %w", err)
	}
	if tx.AccountNumber, err = toString(row[colAccount]); err != nil {
		return tx, fmt.Errorf("account_number: %w", err)
	}
	if tx.Kind, err = toKind(row[colKind]); err != nil {
		return tx, fmt.Errorf("type: %w", err)
	}
	if tx.Amount, err = toDecimal(row[colAmount]); err != nil {
		return tx, fmt.Errorf("amount: %w", err)
	}
	if tx.Counterparty, err = toString(row[colCounterparty]); err != nil {
		return tx, fmt.Errorf("counterparty: %w", err)
	}
	if tx.CreatedAt, err = toTime(row[colCreatedAt]); err != nil {
		return tx, fmt.Errorf("created_at: %w", err)
	}
	return tx, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("unexpected %T", v)
}

// toString accepts NULL as the empty string.
func toString(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", fmt.Errorf("unexpected %T", v)
}

// toKind maps the binlog's 1-based ENUM index onto the ledger kinds.
func toKind(v any) (models.TransactionKind, error) {
	if s, ok := v.(string); ok {
		k := models.TransactionKind(s)
		if !k.Valid() {
			return "", fmt.Errorf("unknown kind %q", s)
		}
		return k, nil
	}
	idx, err := toInt64(v)
	if err != nil {
		return "", err
	}
	if idx < 1 || idx > int64(len(models.TransactionKinds)) {
		return "", fmt.Errorf("enum index %d out of range", idx)
	}
	return models.TransactionKinds[idx-1], nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, nil
	case string:
		return decimal.NewFromString(d)
	case []byte:
		return decimal.NewFromString(string(d))
	case float64:
		return decimal.NewFromFloat(d).Round(2), nil
	}
	return decimal.Zero, fmt.Errorf("unexpected %T", v)
}

// toTime reads TIMESTAMP values, which the binlog carries in UTC.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return time.ParseInLocation(binlogTimeLayout, t, time.UTC)
	case int64:
		return time.Unix(t, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unexpected %T", v)
}
