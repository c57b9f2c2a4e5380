// Package app wires configuration, logging, storage and services for the binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"banking-ledger/internal/config"
	"banking-ledger/internal/db"
	"banking-ledger/internal/logging"
	"banking-ledger/internal/service"
	"banking-ledger/internal/session"
	"banking-ledger/repository"
)

type App struct {
	Config   config.Config
	Log      *zap.Logger
	Store    repository.Store
	Settings service.Settings
	Services session.Services
}

// Load reads the configuration and builds the logger before opening the store.
func Load(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	a, err := Open(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return a, nil
}

// Open connects the configured store, creating the schema on MySQL, and builds the
// services on top of it.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	var store repository.Store
	switch cfg.Backend {
	case config.BackendMySQL:
		conn, err := db.Connect(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, err
		}
		store = repository.NewMySQLStore(conn)
	case config.BackendMemory:
		log.Warn("using in-memory store; data is lost on exit")
		store = repository.NewMemoryStore()
	default:
		return nil, fmt.Errorf("app: unknown backend %q", cfg.Backend)
	}
	log.Info("store ready", zap.String("backend", cfg.Backend))

	settings := service.Settings{
		MinOpeningDeposit: cfg.MinOpeningDeposit,
		BcryptCost:        cfg.BcryptCost,
	}
	return &App{
		Config:   cfg,
		Log:      log,
		Store:    store,
		Settings: settings,
		Services: session.Services{
			Accounts: service.NewAccountService(store, settings, log),
			Auth:     service.NewAuthService(store, settings, log),
			Ledger:   service.NewTransactionService(store, log),
		},
	}, nil
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	err := a.Store.Close()
	_ = a.Log.Sync()
	return err
}
