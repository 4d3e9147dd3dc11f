package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"laundry-machine-tracker/config"
	"laundry-machine-tracker/internal/api"
	"laundry-machine-tracker/internal/db"
	"laundry-machine-tracker/internal/scraper"
	"laundry-machine-tracker/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	errorLog := openLogWriter(cfg.Server.ErrorLogPath, os.Stderr)
	accessLog := openLogWriter(cfg.Server.AccessLogPath, os.Stdout)

	logger := zerolog.New(errorLog).With().Timestamp().Logger()
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	logger.Info().Msg("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, logger)

	scraperSvc := scraper.NewService(cfg, appStore, logger)
	go scraperSvc.Run(ctx)

	router := api.NewRouter(appStore, &cfg.Server, accessLog)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server shutdown")
	}

	logger.Info().Msg("server gracefully stopped")
}

// openLogWriter tees output to the given file alongside the fallback stream.
// An empty or unwritable path falls back to the stream alone.
func openLogWriter(path string, fallback *os.File) io.Writer {
	if path == "" {
		return fallback
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", path, err)
		return fallback
	}
	return io.MultiWriter(fallback, f)
}
