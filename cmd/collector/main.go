package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"post_radar/internal/browser"
	"post_radar/internal/config"
	"post_radar/internal/dedup"
	"post_radar/internal/extract"
	"post_radar/internal/media"
	"post_radar/internal/publisher"
	"post_radar/internal/scheduler"
	"post_radar/internal/service"
	"post_radar/internal/storage/batchfile"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	terms, err := config.LoadSearchTerms(cfg.Collect.TermsFile)
	if err != nil {
		logger.Error("failed to load search terms", "error", err)
		os.Exit(1)
	}
	logger.Info("search terms loaded", "count", len(terms), "file", cfg.Collect.TermsFile)

	runner := media.ExecRunner{}
	ocr := media.NewTesseractOCR(runner, cfg.Media.OCRLanguages)
	if !ocr.Available() {
		logger.Error("tesseract not found in PATH, install it before running")
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Media.DownloadDir, 0o755); err != nil {
		logger.Error("failed to create download dir", "error", err)
		os.Exit(1)
	}

	// Initialize dedup store
	ids := dedup.NewStore(cfg.Collect.IDFile, logger)
	if err := ids.Load(); err != nil {
		logger.Error("failed to load id store", "error", err)
		os.Exit(1)
	}
	logger.Info("known post ids loaded", "count", ids.Len())

	// Initialize browser driver
	driver, err := browser.NewDriver(browser.Config{
		BaseURL:     cfg.Instance.BaseURL,
		Language:    cfg.Collect.TargetLanguage,
		WaitTimeout: cfg.Collect.WaitTimeout,
		ProfileDir:  cfg.Instance.ProfileDir,
		Headless:    cfg.Instance.Headless,
	}, logger)
	if err != nil {
		logger.Error("failed to start browser", "error", err)
		os.Exit(1)
	}
	defer driver.Close()

	// Optional RabbitMQ announcer
	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	enricher := media.NewEnricher(
		media.NewHTTPImageFetcher(cfg.Instance.BaseURL, cfg.Media.DownloadDir, cfg.Media.FetchTimeout),
		media.NewYtDlpFetcher(runner, cfg.Media.DownloadDir),
		ocr,
		media.NewWhisperTranscriber(runner, cfg.Media.TranscriberCmd, cfg.Media.TranscriberModel),
		media.Config{
			PageURLBase: cfg.Instance.BaseURL,
			RetryDelay:  cfg.Media.RetryDelay,
			KeepFiles:   cfg.Media.KeepFiles,
		},
		logger,
	)

	collectService := service.NewCollectService(
		driver,
		extract.New(cfg.Collect.TargetLanguage, cfg.Collect.Salt, ids),
		enricher,
		ids,
		batchfile.NewStore(cfg.Collect.OutputDir),
		pub,
		terms,
		cfg.Collect,
		logger,
	)

	sched := scheduler.NewScheduler(collectService, cfg.Collect.Interval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting post collector",
		"instance", cfg.Instance.BaseURL,
		"interval", cfg.Collect.Interval,
		"max_per_term", cfg.Collect.MaxPerTerm,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
