package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/journal"
	"homework_status_bot/internal/infra/config"
	idb "homework_status_bot/internal/infra/database"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"
)

func main() {
	fmt.Println("Homework Status Bot starting...")

	mainLogger := log.New(os.Stdout, "MAIN: ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingVariablesError
		if errors.As(err, &missing) {
			mainLogger.Fatalf("CRITICAL: %v", err)
		}
		mainLogger.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run has released its resources by the time it returns
	if err := run(ctx, cfg); err != nil {
		stop()
		mainLogger.Fatalf("FATAL: %v", err)
	}
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}

	logCloser, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}
	defer logCloser.Close()
	appLog := logger.Component("main")
	appLog.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Schedule: %s", cfg.LogLevel, cfg.Environment, cfg.PollSchedule)

	// Optional poll cycle journal
	var journalRepo journal.Repository = journal.NewNoopRepository()
	if cfg.DatabaseURL != "" {
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			appLog.WithError(err).Error("Could not connect to database")
			return err
		}
		defer db.Close()
		pgJournal := idb.NewPostgresJournalRepository(db)
		schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = pgJournal.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			appLog.WithError(err).Error("Could not prepare journal schema")
			return err
		}
		journalRepo = pgJournal
		appLog.Info("Poll cycle journal enabled.")
	}

	bot, err := telegram.NewBot(cfg.NotifyToken, "", cfg.RequestTimeout, true)
	if err != nil {
		appLog.WithError(err).Error("Could not create Telegram bot")
		return err
	}
	notifier := app.NewTelegramNotifier(telegram.NewTelebotAdapter(bot), cfg.NotifyTarget, logger.Component("notifier"))

	fetcher := practicum.NewClient(cfg.Endpoint, cfg.APIToken, cfg.RequestTimeout, logger.Component("practicum"))
	pollService := app.NewPollService(fetcher, notifier, journalRepo, logger.Component("poller"), time.Now().Unix())
	pollScheduler := scheduler.NewPollScheduler(pollService, schedule, logger.Component("scheduler"))

	appLog.Info("Bot started.")
	if err := pollScheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLog.WithError(err).Error("Poll scheduler stopped unexpectedly")
		return err
	}
	appLog.Info("Application shut down gracefully.")
	return nil
}
