package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"banking-ledger/internal/cdc"
	"banking-ledger/internal/config"
	"banking-ledger/internal/db"
	"banking-ledger/internal/logging"
	"banking-ledger/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("ledger_tail: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("ledger_tail: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Binlog.Password == "" {
		log.Fatal("MYSQL_REPLICATOR_PASSWORD not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tailer := cdc.NewTailer(cfg.Binlog, log)
	conn, err := db.Connect(ctx, tailer.DSN())
	if err != nil {
		log.Fatal("connecting for master status", zap.Error(err))
	}
	start, err := cdc.CurrentPosition(ctx, conn)
	conn.Close()
	if err != nil {
		log.Fatal("reading master status", zap.Error(err))
	}

	err = tailer.Run(ctx, start, func(_ context.Context, tx models.Transaction) error {
		log.Info("ledger entry",
			zap.Int64("id", tx.ID),
			zap.String("account", tx.AccountNumber),
			zap.String("kind", string(tx.Kind)),
			zap.Stringer("amount", tx.Amount),
			zap.String("counterparty", tx.Counterparty),
			zap.Time("created_at", tx.CreatedAt))
		return nil
	})
	if err != nil {
		log.Fatal("ledger tail stopped", zap.Error(err))
	}
}
