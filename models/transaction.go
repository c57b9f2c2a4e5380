package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindCredit   TransactionKind = "credit"
	KindDebit    TransactionKind = "debit"
	KindTransfer TransactionKind = "transfer"
	KindReceived TransactionKind = "received"
)

// TransactionKinds lists the kinds in the order of the ledger table's ENUM definition.
var TransactionKinds = []TransactionKind{KindCredit, KindDebit, KindTransfer, KindReceived}

func (k TransactionKind) Valid() bool {
	switch k {
	case KindCredit, KindDebit, KindTransfer, KindReceived:
		return true
	}
	return false
}

// Sign is +1 for kinds that add to the balance and -1 for kinds that take from it.
func (k TransactionKind) Sign() int {
	switch k {
	case KindCredit, KindReceived:
		return 1
	case KindDebit, KindTransfer:
		return -1
	}
	return 0
}

// Transaction is one immutable ledger row.
type Transaction struct {
	ID            int64
	AccountNumber string
	Kind          TransactionKind
	Amount        decimal.Decimal
	Counterparty  string // set for transfer/received rows only
	CreatedAt     time.Time
}

// StatementEntry is a row of an external bank statement used for reconciliation.
type StatementEntry struct {
	ExternalID string
	Amount     decimal.Decimal
	Kind       TransactionKind
	Reference  string
}
