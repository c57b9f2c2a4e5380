package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"banking-ledger/internal/app"
	"banking-ledger/internal/service"
	"banking-ledger/internal/util"
)

func main() {
	account := flag.String("account", "", "account number to reconcile")
	statement := flag.String("statement", "data/statement.csv", "path of the CSV bank statement")
	flag.Parse()
	if *account == "" {
		fmt.Fprintln(os.Stderr, "reconcile: -account is required")
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(*account, *statement))
}

func run(account, statement string) int {
	ctx := context.Background()
	a, err := app.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reconcile:", err)
		return 1
	}
	defer a.Close()

	reconciler := service.NewReconciliationService(a.Services.Ledger, util.NewCSVStatementLoader(a.Log), a.Log)
	report, err := reconciler.Reconcile(ctx, account, statement)
	if err != nil {
		a.Log.Error("reconciliation failed", zap.String("account", account), zap.Error(err))
		return 1
	}
	if _, err := report.WriteTo(os.Stdout); err != nil {
		a.Log.Error("writing report", zap.Error(err))
		return 1
	}
	if !report.Clean() {
		return 3
	}
	return 0
}
