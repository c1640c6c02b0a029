package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dblens/internal/config"
	"dblens/internal/logging"
	"dblens/internal/server"
)

func main() {
	cfg := config.Load()

	srv, err := server.New(cfg)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to initialize server")
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Log.WithError(err).Fatal("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Log.WithError(err).Error("server shutdown")
	}
	logging.Log.Info("server exiting")
}
