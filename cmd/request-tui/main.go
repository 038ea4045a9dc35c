package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/request-tui/internal/adapter/filesystem"
	"github.com/vertextoedge/request-tui/internal/adapter/httpclient"
	"github.com/vertextoedge/request-tui/internal/adapter/sqlite"
	"github.com/vertextoedge/request-tui/internal/config"
	"github.com/vertextoedge/request-tui/internal/console"
	"github.com/vertextoedge/request-tui/internal/domain/event"
	"github.com/vertextoedge/request-tui/internal/logger"
	"github.com/vertextoedge/request-tui/internal/service/downloads"
	"github.com/vertextoedge/request-tui/internal/service/history"
	"github.com/vertextoedge/request-tui/internal/task"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (defaults only when empty)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitWithFile(logger.FileConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Info("starting request-tui",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Initialize filesystem manager
	fsManager, err := filesystem.NewManager(cfg.Download.Dir)
	if err != nil {
		zapLogger.Fatal("failed to create filesystem manager", zap.Error(err))
	}

	client := httpclient.New(&httpclient.Config{
		UserAgent:             cfg.Download.UserAgent,
		ResponseHeaderTimeout: cfg.Download.GetResponseHeaderTimeout(),
	})

	// Event wiring
	dispatcher := event.NewInMemoryDispatcher(func(e event.DomainEvent, err error) {
		zapLogger.Warn("event handler failed", zap.String("event", e.EventName()), zap.Error(err))
	})
	stats := event.NewStatsHandler()
	dispatcher.Subscribe(event.NewLoggingHandler(zapLogger))
	dispatcher.Subscribe(stats)

	// Open history database when configured
	var recorder *history.Recorder
	if cfg.Database.Path != "" {
		store, err := sqlite.Open(cfg.Database.Path, cfg.Database.GetBusyTimeout())
		if err != nil {
			zapLogger.Fatal("failed to open database", zap.Error(err), zap.String("path", cfg.Database.Path))
		}
		defer store.Close()

		recorder = history.NewRecorder(store, zapLogger)
		dispatcher.Subscribe(recorder)
	}

	// Task engine
	queue := task.NewQueue(cfg.Download.QueueCapacity)
	sender := task.NewSender(queue, zapLogger)
	resolver := task.NewResolver(fsManager, client, zapLogger, cfg.Download.GetBufferSize())
	manager := task.NewManager(queue, resolver, zapLogger)

	list := downloads.New(sender, downloads.NewFinishList(), dispatcher, downloads.Config{
		SpeedInterval: cfg.UI.GetSpeedInterval(),
	}, zapLogger)

	// A nil *Recorder must not become a non-nil interface
	var historyView console.History
	if recorder != nil {
		historyView = recorder
	}

	ui := console.New(list, historyView, stats, console.Config{
		PollInterval:   cfg.UI.GetPollInterval(),
		StatusInterval: cfg.UI.GetStatusInterval(),
		FreeSpace:      fsManager.FreeSpace,
	}, os.Stdin, os.Stdout, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	managerDone := make(chan error, 1)
	go func() {
		managerDone <- manager.Run(ctx)
	}()

	// URLs given on the command line are queued before the prompt
	for _, url := range flag.Args() {
		if err := list.Append(url); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to queue %s: %v\n", url, err)
		}
	}

	zapLogger.Info("application started successfully",
		zap.String("download_dir", fsManager.RootDir()),
		zap.Int("queue_capacity", cfg.Download.QueueCapacity),
		zap.Bool("history", recorder != nil),
	)

	if err := ui.Run(ctx); err != nil {
		zapLogger.Error("console stopped with error", zap.Error(err))
	}

	zapLogger.Info("shutting down")

	// Running attempts see their command channel close and end at the next chunk
	list.Close()
	sender.Close()

	select {
	case err := <-managerDone:
		if err != nil && err != context.Canceled {
			zapLogger.Error("task manager stopped with error", zap.Error(err))
		}
	case <-time.After(5 * time.Second):
		zapLogger.Warn("task manager did not stop in time")
	}

	zapLogger.Info("application stopped successfully")
}
