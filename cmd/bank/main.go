package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"banking-ledger/internal/app"
	"banking-ledger/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("bank: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer a.Close()

	menu := cli.New(os.Stdin, os.Stdout, a.Services, a.Log)
	menu.MinOpeningDeposit = a.Config.MinOpeningDeposit
	if err := menu.Run(ctx); err != nil {
		a.Log.Error("menu stopped", zap.Error(err))
	}
}
