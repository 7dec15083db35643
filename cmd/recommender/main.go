package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"post_radar/internal/analyze"
	"post_radar/internal/config"
	"post_radar/internal/service"
	"post_radar/internal/storage/batchfile"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Error("GEMINI_API_KEY is not set")
		os.Exit(1)
	}

	classifier := analyze.New(analyze.Config{
		BaseURL:        cfg.Classifier.BaseURL,
		Model:          cfg.Classifier.Model,
		APIKey:         apiKey,
		Timeout:        cfg.Classifier.Timeout,
		MaxAttempts:    cfg.Classifier.Retry.MaxAttempts,
		InitialBackoff: cfg.Classifier.Retry.InitialBackoff,
		MaxBackoff:     cfg.Classifier.Retry.MaxBackoff,
	}, logger)

	recommendService := service.NewRecommendService(
		batchfile.NewStore(cfg.Collect.OutputDir),
		classifier,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	ranked, path, err := recommendService.Run(ctx)
	if err != nil {
		logger.Error("recommendation run failed", "error", err)
		os.Exit(1)
	}
	if len(ranked) == 0 {
		logger.Info("nothing to recommend")
		return
	}
	logger.Info("recommendations written", "count", len(ranked), "file", path)
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
