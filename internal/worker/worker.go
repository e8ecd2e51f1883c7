package worker

import (
	"context"
	"encoding/json"
	"time"

	"uploader/internal/config"
	"uploader/internal/events"
	"uploader/internal/logger"
	"uploader/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

type Worker struct {
	config    *config.Config
	logger    *logger.Logger
	reader    *kafka.Reader
	processor *processors.EventProcessor
}

func New(cfg *config.Config, logger *logger.Logger, processor *processors.EventProcessor) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers(),
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.KafkaTopic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Worker{
		config:    cfg,
		logger:    logger,
		reader:    reader,
		processor: processor,
	}
}

// Start reads events until ctx is cancelled. A run in progress sees the
// same ctx and stops launching new uploads.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, listening on %s", w.config.KafkaTopic)

	for ctx.Err() == nil {
		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := w.reader.ReadMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() == nil && readCtx.Err() == nil {
				w.logger.Error("Failed to read message: %v", err)
			}
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		var event events.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse event: %v", err)
			continue
		}

		if err := w.processor.Process(ctx, event); err != nil {
			w.logger.Error("Failed to process event %s (%s): %v", event.Type, event.RunID, err)
			continue
		}

		w.logger.Debug("Event processed successfully")
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}
