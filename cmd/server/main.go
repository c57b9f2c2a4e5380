package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"banking-ledger/internal/app"
	"banking-ledger/internal/httpapi"
	"banking-ledger/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("server: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer a.Close()

	if a.Config.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}
	registry := session.NewRegistry(a.Services, a.Log)
	srv := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           httpapi.NewServer(a.Services, registry, a.Log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Log.Error("shutdown failed", zap.Error(err))
		}
	}()

	a.Log.Info("listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Log.Error("server stopped", zap.Error(err))
	}
}
