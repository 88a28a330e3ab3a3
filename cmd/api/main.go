package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/adapter/handler"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/adapter/middleware"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/adapter/storage"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/config"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/ledger"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/notify"
)

func main() {
	cfg := config.Load()

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	dbPool, err := storage.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	store := storage.NewStore(dbPool, cfg.LockTimeout)

	var emailChannel, smsChannel notify.Channel
	if cfg.SMTPHost != "" {
		emailChannel = notify.WithBreaker(notify.NewEmailSender(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom))
	} else {
		logger.Warn("SMTP not configured, email notifications disabled")
	}
	if cfg.SMSGatewayURL != "" {
		smsChannel = notify.WithBreaker(notify.NewSMSSender(
			cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSSender))
	} else {
		logger.Warn("SMS gateway not configured, SMS notifications disabled")
	}

	dispatcher := notify.NewDispatcher(emailChannel, smsChannel,
		cfg.NotifyQueueSize, cfg.NotifyWorkers, logger.Named("notify"))

	executor := ledger.NewExecutor(store, dispatcher, logger.Named("ledger"))

	transferHandler := &handler.TransferHandler{Executor: executor, Log: logger}
	accountHandler := &handler.AccountHandler{Store: store, Log: logger}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(cors.New())

	api := app.Group("/v1")
	api.Post("/transfers", middleware.Idempotency(middleware.NewPGKeyStore(dbPool), logger), transferHandler.CreateTransfer)
	api.Get("/accounts/:id", accountHandler.GetAccount)
	api.Get("/accounts/:id/transactions", accountHandler.GetHistory)
	api.Get("/transactions/:id/entries", accountHandler.GetTransactionEntries)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("env", cfg.Env), zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("shutting down")

	// Stop accepting requests first so no new transfers start, then let the
	// dispatcher finish what its workers already picked up. Undispatched
	// notifications are allowed to drop; half-done transfers are not.
	if err := app.Shutdown(); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	dispatcher.Stop()
	dbPool.Close()

	logger.Info("server exited")
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
