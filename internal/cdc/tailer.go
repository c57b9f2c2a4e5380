package cdc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"banking-ledger/internal/config"
	"banking-ledger/models"
	"banking-ledger/repository"
)

// Handler receives every ledger row inserted after the tail started. Returning an
// error stops the tail.
type Handler func(ctx context.Context, tx models.Transaction) error

// Tailer streams ledger inserts from a MySQL primary acting as a replica client.
type Tailer struct {
	cfg config.BinlogConfig
	log *zap.Logger
}

func NewTailer(cfg config.BinlogConfig, log *zap.Logger) *Tailer {
	return &Tailer{cfg: cfg, log: log.Named("cdc")}
}

// DSN addresses the same server with the replication account, for status queries.
func (t *Tailer) DSN() string {
	c := mysql.NewConfig()
	c.User = t.cfg.User
	c.Passwd = t.cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(t.cfg.Host, strconv.Itoa(int(t.cfg.Port)))
	return c.FormatDSN()
}

// CurrentPosition reads the binlog file and offset the primary is writing to.
func CurrentPosition(ctx context.Context, db repository.DBTX) (gomysql.Position, error) {
	rows, err := db.QueryContext(ctx, "SHOW MASTER STATUS")
	if err != nil {
		return gomysql.Position{}, fmt.Errorf("CurrentPosition: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return gomysql.Position{}, fmt.Errorf("CurrentPosition: %w", err)
	}
	if len(cols) < 2 {
		return gomysql.Position{}, fmt.Errorf("CurrentPosition: unexpected %d columns", len(cols))
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return gomysql.Position{}, fmt.Errorf("CurrentPosition: %w", err)
		}
		return gomysql.Position{}, errors.New("CurrentPosition: binary logging is disabled")
	}

	var pos gomysql.Position
	dest := make([]any, len(cols))
	dest[0], dest[1] = &pos.Name, &pos.Pos
	for i := 2; i < len(dest); i++ {
		dest[i] = new(sql.RawBytes)
	}
	if err := rows.Scan(dest...); err != nil {
		return gomysql.Position{}, fmt.Errorf("CurrentPosition: %w", err)
	}
	return pos, nil
}

// Run streams from start until ctx is cancelled or handle fails.
func (t *Tailer) Run(ctx context.Context, start gomysql.Position, handle Handler) error {
	syncer := replication.NewBinlogSyncer(replication.BinlogSyncerConfig{
		ServerID:   t.cfg.ServerID,
		Flavor:     gomysql.MySQLFlavor,
		Host:       t.cfg.Host,
		Port:       t.cfg.Port,
		User:       t.cfg.User,
		Password:   t.cfg.Password,
		UseDecimal: true,
		ParseTime:  true,
	})
	defer syncer.Close()

	streamer, err := syncer.StartSync(start)
	if err != nil {
		return fmt.Errorf("Run: start sync at %s: %w", start, err)
	}
	t.log.Info("binlog stream started", zap.String("file", start.Name), zap.Uint32("pos", start.Pos))

	for {
		ev, err := streamer.GetEvent(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				t.log.Info("binlog stream stopped")
				return nil
			}
			return fmt.Errorf("Run: get event: %w", err)
		}

		switch e := ev.Event.(type) {
		case *replication.RotateEvent:
			t.log.Debug("rotated", zap.ByteString("file", e.NextLogName), zap.Uint64("pos", e.Position))
		case *replication.RowsEvent:
			txs, err := DecodeRows(t.cfg.Schema, ev.Header.EventType, e)
			if err != nil {
				return fmt.Errorf("Run: %w", err)
			}
			for _, tx := range txs {
				if err := handle(ctx, tx); err != nil {
					return fmt.Errorf("Run: handle transaction %d: %w", tx.ID, err)
				}
			}
		}
	}
}
