/*
Package main is the entry point of the EchoSpace auth server.

It loads configuration, initializes the global logger, opens the user store (PostgreSQL or,
in development, process memory), connects optional avatar storage, serves the HTTP API and
shuts everything down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"echospace/internal/app/db"
	"echospace/internal/app/socket"
	"echospace/internal/app/storage"
	"echospace/internal/app/user"
	"echospace/internal/configs"
	"echospace/internal/handler"
	"echospace/internal/pkg/logx"
)

func main() {
	// Load configuration from .env and environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("store_driver", cfg.StoreDriver).
		Bool("storage_enabled", cfg.StorageEnabled()).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, pool, err := openUserStore(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open user store")
	}
	if pool != nil {
		defer pool.Close()
	}

	var avatars storage.StorageService
	if cfg.StorageEnabled() {
		avatars, err = storage.NewStorageService(ctx, storage.ServiceConfig{
			BucketName:      cfg.S3BucketName,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize storage service")
		}
	} else {
		logx.Warn("S3 storage is not configured, avatar uploads are disabled")
	}

	hub := socket.NewHub()

	router := handler.Router(&handler.AppDeps{
		Config:  cfg,
		Users:   users,
		Hub:     hub,
		Storage: avatars,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("%s starting on http://localhost%s", handler.ServiceName, serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	if err := hub.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "WebSocket connections did not close in time")
	}

	logx.Info("Server gracefully stopped.")
}

// openUserStore returns the configured user store. The pool is nil for the memory store.
func openUserStore(ctx context.Context, cfg *configs.AppConfig) (user.Store, *pgxpool.Pool, error) {
	if cfg.StoreDriver == configs.StoreDriverMemory {
		logx.Warn("Using in-memory user store, accounts are lost on restart")
		return user.NewMemoryStore(), nil, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	logx.Info("Connected to PostgreSQL user store")
	return user.NewPostgresStore(pool), pool, nil
}
