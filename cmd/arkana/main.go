package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"arkana/internal/app"
	"arkana/internal/store"
	u "arkana/internal/utils"
)

func main() {
	cfg := u.LoadConfig()
	u.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	storage, err := store.New(cfg.Storage)
	if err != nil {
		u.Error("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	application, err := app.SetupApp(cfg, app.Deps{
		Storage: storage,
		Redis:   pdfCache(cfg.PriceList),
	})
	if err != nil {
		u.Error("Failed to set up app", "error", err)
		os.Exit(1)
	}

	idleConnsClosed := make(chan struct{})
	startServer(application, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// pdfCache connects to the Redis instance caching price list PDFs, if any.
func pdfCache(cfg u.PriceListConfig) *redis.Client {
	if !cfg.Enabled || cfg.RedisHost == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: cfg.RedisHost,
		DB:   cfg.RedisDB,
	})
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg u.Config, idleConnsClosed chan struct{}) {
	go func() {
		u.Info("Listening", "addr", cfg.Server.Host+cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			u.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	u.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		u.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	u.Info("Server stopped cleanly")
}
