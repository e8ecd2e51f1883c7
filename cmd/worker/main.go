package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"uploader/internal/config"
	"uploader/internal/database"
	"uploader/internal/events"
	"uploader/internal/keywords"
	"uploader/internal/logger"
	"uploader/internal/quota"
	"uploader/internal/safety"
	"uploader/internal/worker"
	"uploader/internal/worker/processors"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	if r, err := ai.New(ctx, cfg, logger); err != nil {
		logger.Warn("Strict-tier review disabled: %v", err)
	} else {
		reviewer = r
	}

	var tracker quota.Tracker = quota.NewMemory()
	if cfg.RedisURL != "" {
		rc := quota.Config{URL: cfg.RedisURL, ReadTimeout: 3, WriteTimeout: 3, DialTimeout: 5}
		client, err := rc.New()
		if err != nil {
			logger.Fatal("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		tracker = quota.NewRedis(client)
	}

	publisher := events.NewKafkaPublisher(cfg.Brokers(), cfg.KafkaTopic)
	defer publisher.Close()

	validator := validation.New(rules, reviewer, logger)
	processor := processors.NewEventProcessor(cfg, logger, validator, tracker, database.NewRepository(db.DB), publisher)

	// Initialize worker
	w := worker.New(cfg, logger, processor)

	// Start worker
	logger.Info("Starting worker...")
	go w.Start(ctx)

	// Wait for interrupt signal
	<-ctx.Done()

	logger.Info("Shutting down worker...")
	w.Stop()
}
