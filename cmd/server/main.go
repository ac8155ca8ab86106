package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/internal/agent"
	"github.com/Alias1177/OracleGuard/internal/api/historyfeed"
	"github.com/Alias1177/OracleGuard/internal/config"
	"github.com/Alias1177/OracleGuard/internal/database"
	"github.com/Alias1177/OracleGuard/internal/detector"
	"github.com/Alias1177/OracleGuard/internal/notify"
	"github.com/Alias1177/OracleGuard/internal/server"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting OracleGuard server")

	// 3. Build the engine
	d, err := detector.New(cfg.Engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create anomaly detector")
	}
	a, err := agent.New(cfg.Engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create decision agent")
	}

	// 4. Optional audit sink
	var store *database.DB
	if cfg.DBHost != "" {
		store, err = database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer store.Close()
		log.Info().Str("host", cfg.DBHost).Msg("Audit sink connected")
	} else {
		log.Info().Msg("DB_HOST not set, audit sink disabled")
	}

	// 5. Optional Telegram alerting
	var notifier *notify.Notifier
	if cfg.TelegramToken != "" {
		notifier, err = notify.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Telegram notifier")
		}
		log.Info().Msg("Telegram alerting enabled")
	}

	// 6. Optional history feed fallback
	var feed *historyfeed.Client
	if cfg.HistoryFeedURL != "" {
		feed = historyfeed.NewClient(historyfeed.ClientOptions{
			BaseURL:        cfg.HistoryFeedURL,
			APIKey:         cfg.HistoryFeedKey,
			RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
			RequestsPerSec: 5,
			MaxRetries:     cfg.Engine.MaxRetries,
		})
		log.Info().Str("url", cfg.HistoryFeedURL).Msg("History feed fallback enabled")
	}

	// 7. HTTP server
	handler := server.NewHandler(d, a, store, notifier, feed)
	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      server.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ServerAddr).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 8. Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("Shutdown signal received, draining...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
