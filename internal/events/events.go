package events

import (
	"context"
	"encoding/json"
	"time"

	"uploader/internal/apperr"

	"github.com/segmentio/kafka-go"
)

const (
	TypeUploadRequested = "upload.requested"
	TypeUploadCompleted = "upload.completed"
)

type Event struct {
	Type      string          `json:"type"`
	RunID     string          `json:"run_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// UploadRequest is the payload of upload.requested.
type UploadRequest struct {
	Session       string   `json:"session"`
	Groups        []string `json:"groups"`
	Markets       []string `json:"markets,omitempty"`
	UploadCount   int      `json:"upload_count,omitempty"`
	OptionCount   int      `json:"option_count,omitempty"`
	OptionSort    string   `json:"option_sort,omitempty"`
	DryRun        bool     `json:"dry_run"`
	TestProductID string   `json:"test_product_id,omitempty"`
}

// New builds an event with data encoded as JSON.
func New(eventType, runID string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, apperr.Wrap(apperr.Invalid, err, "encode event data")
	}
	return Event{Type: eventType, RunID: runID, Data: raw, Timestamp: time.Now().UTC()}, nil
}

func (e Event) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return apperr.Wrap(apperr.Invalid, err, "decode "+e.Type+" payload")
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

// Publish keys messages by run id so one run's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "encode event")
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.RunID), Value: value}); err != nil {
		return apperr.Networkf(err, "publish %s", e.Type)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
