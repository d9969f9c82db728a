package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"adminpanel/internal/bootstrap"
	"adminpanel/internal/pkg/logger"
	httptransport "adminpanel/internal/transport/http"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Cancelling ctx also stops the asset cleanup consumer.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer logger.Sync()

	srv := &http.Server{
		Addr:              app.Config.HTTPAddr(),
		Handler:           httptransport.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("admin panel listening",
			zap.String("addr", srv.Addr),
			zap.String("db_driver", app.Config.Database.Driver),
			zap.String("storage_driver", app.Config.Storage.Driver),
			zap.Bool("auth_required", app.Config.Auth.Required),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := app.Close(); err != nil {
		logger.Warn("close resources failed", zap.Error(err))
	}
	logger.Info("admin panel stopped")
}
