package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"substitution_bot/internal/app"
	"substitution_bot/internal/domain/schedule"
	"substitution_bot/internal/domain/subscriber"
	"substitution_bot/internal/infra/config"
	idb "substitution_bot/internal/infra/database"
	"substitution_bot/internal/infra/logger"
	"substitution_bot/internal/infra/scheduler"
	"substitution_bot/internal/infra/source"
	"substitution_bot/internal/infra/storage"
	"substitution_bot/internal/infra/tabula"
	"substitution_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			os.Exit(0)
		}
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"storage_driver": cfg.StorageDriver,
		"poll_interval":  cfg.PollInterval.String(),
		"environment":    cfg.Environment,
	}).Info("Substitution bot starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, subscribers, closeStorage := openStorage(cfg, mainLogger)
	defer closeStorage()

	urls, err := documentURLs(cfg)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not resolve document URLs")
	}
	documentSource := source.NewHTTPSource(
		urls,
		source.Credentials{User: cfg.DocumentUser, Password: cfg.DocumentPassword},
		cfg.FetchTimeout,
		logger.Component("source"),
	)

	extractor, err := tabula.NewExtractor(cfg.TabulaCommand, cfg.TempDir, logger.Component("tabula"))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not set up table extraction")
	}

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "text": c.Text()})
			}
			entry.Error("Telegram handler failed")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	notificationService := app.NewNotificationService(subscribers, telegramClient, logger.Component("notifier"))
	pollService := app.NewPollService(
		documentSource,
		extractor,
		app.NewChangeDetector(snapshots, logger.Component("detector")),
		notificationService,
		snapshots,
		subscribers,
		cfg.TrackedGroups,
		logger.Component("poll"),
	)
	registrationService := app.NewRegistrationService(subscribers)

	telegram.RegisterBotCommands(bot, logger.Component("telegram"))
	telegram.RegisterSubscriptionHandlers(ctx, bot, registrationService, logger.Component("telegram"))
	mainLogger.Info("Command handlers registered")

	pollScheduler := scheduler.NewPollScheduler(pollService, scheduler.Options{
		Interval:     cfg.PollInterval,
		CycleTimeout: cfg.CycleTimeout,
		CheckNextDay: cfg.CheckNextDay,
		SkipWeekends: cfg.SkipWeekends,
	}, logger.Component("scheduler"))
	if err := pollScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start poll scheduler")
	}
	now := time.Now()
	if !cfg.SkipWeekends || schedule.IsSchoolDay(now.Weekday()) {
		pollScheduler.Trigger(schedule.FromCalendarDay(now.Weekday()))
	}

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.Info("Application setup complete, bot and scheduler are running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	pollScheduler.Stop()
	cancel()
	mainLogger.Info("Application shut down gracefully")
}

// openStorage builds the snapshot store and subscriber registry for the
// configured driver.
func openStorage(cfg *config.AppConfig, mainLogger *logrus.Entry) (schedule.SnapshotRepository, subscriber.Repository, func()) {
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to database")
		}
		version, dirty, err := idb.RunMigrations(db)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not run database migrations")
		}
		mainLogger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Database ready")
		return idb.NewPostgresSnapshotRepository(db), idb.NewPostgresSubscriberRepository(db), func() { db.Close() }

	default:
		snapshots, err := storage.NewFileSnapshotRepository(cfg.SnapshotDir, logger.Component("snapshots"))
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not open snapshot directory")
		}
		subscribers, err := storage.NewFileSubscriberRepository(cfg.SubscribersFile, logger.Component("subscribers"))
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not load subscriber registry")
		}
		return snapshots, subscribers, func() {}
	}
}

func documentURLs(cfg *config.AppConfig) (source.URLs, error) {
	urls, err := source.URLsFromTemplate(cfg.DocumentURLTemplate)
	if err != nil {
		return nil, err
	}
	if cfg.DocumentSourcesFile == "" {
		return urls, nil
	}
	return source.LoadSourcesFile(cfg.DocumentSourcesFile, urls)
}
