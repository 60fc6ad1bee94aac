package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Savantrexs/MedConfirm/internal/api"
	"github.com/Savantrexs/MedConfirm/internal/app"
	"github.com/Savantrexs/MedConfirm/internal/cli"
	"github.com/Savantrexs/MedConfirm/internal/config"
	"github.com/Savantrexs/MedConfirm/internal/notify"
	"github.com/Savantrexs/MedConfirm/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	godotenv.Load()
	flag.Parse()

	if flag.NArg() == 0 {
		printHelp()
		return
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {
	case "help", "--help", "-h":
		printHelp()
	case "version", "--version", "-v":
		fmt.Printf("MedConfirm version %s\n", version)
	case "serve":
		runServer()
	case "add":
		service, cleanup := initService()
		defer cleanup()
		cli.HandleAddCommand(service, args)
	case "list", "ls":
		service, cleanup := initService()
		defer cleanup()
		cli.HandleListCommand(service, args)
	case "take":
		service, cleanup := initService()
		defer cleanup()
		cli.HandleTakeCommand(service, args)
	case "status", "today":
		service, cleanup := initService()
		defer cleanup()
		cli.HandleStatusCommand(service)
	case "history":
		service, cleanup := initService()
		defer cleanup()
		cli.HandleHistoryCommand(service)
	case "export":
		service, cleanup := initService()
		defer cleanup()
		cli.HandleExportCommand(service, args)
	case "settings":
		service, cleanup := initService()
		defer cleanup()
		cli.HandleSettingsCommand(service, args)
	case "unlock":
		service, cleanup := initService()
		defer cleanup()
		cli.HandleUnlockCommand(service)
	default:
		fmt.Printf("Unknown command: %s\n\n", cmd)
		printHelp()
		os.Exit(1)
	}
}

func runServer() {
	cfg, logger := initBase()
	defer logger.Sync()

	logger.Info("Starting MedConfirm",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.Int("port", cfg.Server.Port),
	)

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	notifier, err := notify.NewCronNotifier(notify.CronNotifierOptions{
		BadgerPath: cfg.Storage.BadgerPath,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	notifier.Start()
	defer notifier.Close()

	scheduler := notify.NewScheduler(notifier, logger)
	service := app.NewService(st, scheduler, logger, cfg.Reminders.FreeSlots)

	// rebuild triggers in case medications changed while the server was down
	if err := service.ResyncReminders(); err != nil {
		logger.Warn("Failed to resync reminders", zap.Error(err))
	}

	server := api.New(cfg, service, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}

// initService wires a service for one-shot commands. When the trigger
// store is held by a running server, reminders fall back to a no-op
// notifier so the data change still lands.
func initService() (*app.Service, func()) {
	cfg, logger := initBase()

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	var notifier notify.Notifier = notify.Noop()
	cleanup := func() { logger.Sync() }

	cn, err := notify.NewCronNotifier(notify.CronNotifierOptions{
		BadgerPath: cfg.Storage.BadgerPath,
		Logger:     logger,
	})
	if err != nil {
		logger.Warn("Trigger store unavailable, reminder changes will be picked up by the server", zap.Error(err))
	} else {
		notifier = cn
		cleanup = func() {
			cn.Close()
			logger.Sync()
		}
	}

	scheduler := notify.NewScheduler(notifier, logger)
	return app.NewService(st, scheduler, logger, cfg.Reminders.FreeSlots), cleanup
}

func initBase() (*config.Config, *zap.Logger) {
	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Logging.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, logger
}

func printHelp() {
	fmt.Println(`MedConfirm - personal medication tracker

Usage: medconfirm <command> [flags]

Commands:
  serve              Run the API server and reminder engine
  add                Register a medication
  list               List medications
  take <name|id>     Log a dose
  status             Show today's dose status
  history            Show intake history
  export             Export history as CSV
  settings           Show or change settings
  unlock             Unlock an extra medication slot
  version            Print version

Global flags:
  -config <path>     Config file location
  -data <path>       Data directory location`)
}
