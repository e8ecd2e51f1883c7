package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uploader/internal/api"
	"uploader/internal/config"
	"uploader/internal/database"
	"uploader/internal/events"
	"uploader/internal/keywords"
	"uploader/internal/logger"
	"uploader/internal/safety"
	"uploader/internal/worker/processors/ai"
	"uploader/internal/worker/processors/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	rules, err := keywords.NewStore(cfg.KeywordsPath)
	if err != nil {
		logger.Fatal("Failed to load keywords: %v", err)
	}

	var reviewer safety.Reviewer
	if r, err := ai.New(context.Background(), cfg, logger); err != nil {
		logger.Warn("Strict-tier review disabled: %v", err)
	} else {
		reviewer = r
	}

	publisher := events.NewKafkaPublisher(cfg.Brokers(), cfg.KafkaTopic)
	defer publisher.Close()

	// Initialize API server
	server := api.New(cfg, logger, api.Deps{
		DB:        db,
		Keywords:  rules,
		Validator: validation.New(rules, reviewer, logger),
		Publisher: publisher,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
