package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coo-bot/internal/agent"
	"coo-bot/internal/assistant"
	"coo-bot/internal/bot"
	"coo-bot/internal/config"
	"coo-bot/internal/crash"
	"coo-bot/internal/handler"
	"coo-bot/internal/logger"
	"coo-bot/internal/memory"
	"coo-bot/internal/notion"
	"coo-bot/internal/proposal"
	"coo-bot/internal/reminder"
	"coo-bot/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer crash.RecoverWithStackAndExit("main")

	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	logger.Infof("Database connection established (%s)", cfg.Database.Driver)

	reminderRepo := storage.NewReminderRepository(storage.GetDB())
	if err := reminderRepo.MigrateTable(); err != nil {
		log.Fatalf("Failed to migrate reminders table: %v", err)
	}
	turnRepo := storage.NewTurnRepository(storage.GetDB())
	if err := turnRepo.MigrateTable(); err != nil {
		log.Fatalf("Failed to migrate conversation turns table: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	extractor, err := agent.NewExtractor(ctx, &cfg.Ai)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	transcriber := agent.NewTranscriber(extractor, &cfg.Ai)
	workspace := notion.NewClient(&cfg.Notion)

	recorder := memory.NewRecorder(turnRepo, cfg.Assistant.HistoryTurns)

	store := proposal.NewStore()
	sweeperStop := make(chan struct{})
	defer close(sweeperStop)
	store.StartSweeper(time.Minute, sweeperStop)

	ttl := time.Duration(cfg.Assistant.ProposalTTLMinutes) * time.Minute
	asst := assistant.New(store, extractor, workspace, recorder, ttl)

	botService, server, err := bot.Initialize(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	delivery := bot.NewSender(botService.Bot)
	reminderService := reminder.NewService(reminderRepo, delivery,
		cfg.Reminder.DefaultTimezone, cfg.Reminder.MaxFailures)
	scheduler := reminder.NewScheduler(reminderService,
		time.Duration(cfg.Reminder.TickSeconds)*time.Second)
	crash.SafeGoroutine("reminder-scheduler", func() {
		scheduler.Run(ctx)
	})

	handler.Initialize(cfg, asst, reminderService, transcriber, workspace)
	handler.SetupMessageHandlers(botService.Handler, botService.Bot)

	if server != nil {
		go func() {
			if err := server.Start(); err != nil {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
		// Give the server time to bind before updates start flowing.
		time.Sleep(500 * time.Millisecond)
	}

	go botService.Start()
	logger.Infof("COO assistant is running in %s mode", cfg.Bot.Mode)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Infof("Received signal: %v, shutting down...", sig)

	cancel()
	botService.Stop()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warningf("HTTP server shutdown error: %v", err)
		}
	}

	logger.Infof("COO assistant stopped")
}
