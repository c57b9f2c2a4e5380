package cdc

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"banking-ledger/internal/config"
	"banking-ledger/models"
)

func rowsEvent(schema, table string, rows ...[]any) *replication.RowsEvent {
	return &replication.RowsEvent{
		Table: &replication.TableMapEvent{Schema: []byte(schema), Table: []byte(table)},
		Rows:  rows,
	}
}

func TestDecodeRows(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 123456000, time.UTC)
	e := rowsEvent("banking_system", "transactions",
		[]any{int64(7), "1234567890", int64(1), decimal.RequireFromString("500.00"), nil, at},
		[]any{int64(8), "1234567890", int64(3), "20.50", []byte("2222222222"), "2026-03-01 09:30:01.000001"},
		[]any{uint64(9), "2222222222", int64(4), decimal.RequireFromString("20.50"), "1234567890", at},
	)

	txs, err := DecodeRows("banking_system", replication.WRITE_ROWS_EVENTv2, e)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d rows", len(txs))
	}

	first := txs[0]
	if first.ID != 7 || first.Kind != models.KindCredit || !first.Amount.Equal(decimal.NewFromInt(500)) ||
		first.Counterparty != "" || !first.CreatedAt.Equal(at) {
		t.Errorf("row 0 = %+v", first)
	}
	second := txs[1]
	if second.Kind != models.KindTransfer || second.Counterparty != "2222222222" ||
		!second.Amount.Equal(decimal.RequireFromString("20.5")) ||
		!second.CreatedAt.Equal(time.Date(2026, 3, 1, 9, 30, 1, 1000, time.UTC)) {
		t.Errorf("row 1 = %+v", second)
	}
	if txs[2].Kind != models.KindReceived || txs[2].ID != 9 {
		t.Errorf("row 2 = %+v", txs[2])
	}
}

func TestDecodeRowsIgnores(t *testing.T) {
	row := []any{int64(1), "1234567890", int64(1), "1.00", nil, "2026-03-01 09:30:00"}
	tests := []struct {
		name      string
		schema    string
		eventType replication.EventType
		event     *replication.RowsEvent
	}{
		{"other table", "banking_system", replication.WRITE_ROWS_EVENTv2, rowsEvent("banking_system", "accounts", row)},
		{"other schema", "banking_system", replication.WRITE_ROWS_EVENTv2, rowsEvent("shop", "transactions", row)},
		{"update", "banking_system", replication.UPDATE_ROWS_EVENTv2, rowsEvent("banking_system", "transactions", row, row)},
		{"delete", "banking_system", replication.DELETE_ROWS_EVENTv1, rowsEvent("banking_system", "transactions", row)},
		{"nil event", "banking_system", replication.WRITE_ROWS_EVENTv2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := DecodeRows(tt.schema, tt.eventType, tt.event)
			if err != nil || len(txs) != 0 {
				t.Fatalf("got %v, %v", txs, err)
			}
		})
	}
}

func TestDecodeRowsRejectsMalformed(t *testing.T) {
	tests := map[string][]any{
		"short row":      {int64(1), "1234567890"},
		"enum range":     {int64(1), "1234567890", int64(5), "1.00", nil, "2026-03-01 09:30:00"},
		"bad amount":     {int64(1), "1234567890", int64(1), "one", nil, "2026-03-01 09:30:00"},
		"bad timestamp":  {int64(1), "1234567890", int64(1), "1.00", nil, "yesterday"},
		"id not integer": {"1", "1234567890", int64(1), "1.00", nil, "2026-03-01 09:30:00"},
	}
	for name, row := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRows("banking_system", replication.WRITE_ROWS_EVENTv2, rowsEvent("banking_system", "transactions", row))
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestCurrentPosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SHOW MASTER STATUS").WillReturnRows(
		sqlmock.NewRows([]string{"File", "Position", "Binlog_Do_DB", "Binlog_Ignore_DB", "Executed_Gtid_Set"}).
			AddRow("binlog.000042", 1337, "", "", ""))
	pos, err := CurrentPosition(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	if pos.Name != "binlog.000042" || pos.Pos != 1337 {
		t.Errorf("pos = %+v", pos)
	}

	mock.ExpectQuery("SHOW MASTER STATUS").WillReturnRows(sqlmock.NewRows([]string{"File", "Position"}))
	if _, err := CurrentPosition(context.Background(), db); err == nil {
		t.Error("expected an error when binary logging is off")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTailerDSN(t *testing.T) {
	tl := NewTailer(config.BinlogConfig{Host: "db", Port: 3307, User: "replicator", Password: "pw"}, zaptest.NewLogger(t))
	if got, want := tl.DSN(), "replicator:pw@tcp(db:3307)/"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
