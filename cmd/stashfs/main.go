package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marmos91/stashfs/internal/api"
	"github.com/marmos91/stashfs/internal/logger"
	"github.com/marmos91/stashfs/pkg/config"
	"github.com/marmos91/stashfs/pkg/files"
	"github.com/marmos91/stashfs/pkg/users"
	"github.com/marmos91/stashfs/pkg/worker"
)

func main() {
	// A .env file is a development convenience; its absence is not an error.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	port := flag.Int("port", 0, "Override HTTP listen port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// CLI flags take precedence over file and environment.
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := setupLogger(&cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	fmt.Println("stashfs - file storage service")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := config.CreateStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create stores: %v", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Error("Failed to close stores: %v", err)
		}
	}()

	logger.Info("Storage configuration:")
	logger.Info("  Metadata store: %s", cfg.Metadata.Type)
	logger.Info("  Content store: %s", cfg.Content.Type)
	logger.Info("  Token cache: %s", cfg.Tokens.Type)
	logger.Info("  Job queue: %s", cfg.Queue.Type)

	usersSvc := users.NewService(stores.Metadata, stores.Tokens, stores.Queue)
	filesSvc := files.NewService(stores.Metadata, stores.Content, stores.Queue)

	pool := worker.NewPool(stores.Metadata, stores.Content, stores.Queue, worker.NewBimgResizer(), worker.Config{
		Enabled:         cfg.Worker.Enabled,
		Concurrency:     cfg.Worker.Concurrency,
		PollInterval:    cfg.Worker.PollInterval,
		JobTimeout:      cfg.Worker.JobTimeout,
		MaxAttempts:     cfg.Worker.MaxAttempts,
		ResizePerSecond: cfg.Worker.ResizePerSecond,
	})
	pool.Start()

	server := api.NewServer(usersSvc, filesSvc, stores.Metadata, stores.Tokens, api.Config{
		RateLimitEnabled:  cfg.Server.RateLimit.Enabled,
		RequestsPerMinute: cfg.Server.RateLimit.RequestsPerMinute,
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", addr)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error: %v", err)
		}
		if err := pool.Stop(shutdownCtx); err != nil {
			logger.Error("Worker pool shutdown error: %v", err)
		}

		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	}
}

// setupLogger configures the global logger from configuration.
func setupLogger(cfg *config.LoggingConfig) error {
	logger.SetLevel(cfg.Level)

	switch cfg.Output {
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		logger.SetOutput(f)
	}

	return nil
}
