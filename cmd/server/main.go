package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"horrorvault/internal/config"
	"horrorvault/internal/container"
	"horrorvault/internal/logger"
)

func main() {
	if err := godotenv.Load(".env.local"); err != nil {
		logger.Get().Info("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Get().WithError(err).Fatal("Invalid configuration")
	}

	logger.Init(cfg.LogLevel)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	c, err := container.New(initCtx, cfg)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer c.Close()

	go c.Run(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      75 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("Server stopped unexpectedly")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	log.Info("Server stopped")
}
