package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-daemon/internal/config"
	"github.com/couchcryptid/weather-daemon/internal/domain"
)

// SinkName labels this mirror in logs and metrics.
const SinkName = "kafka"

// Writer mirrors each published document to a Kafka topic.
// It implements pipeline.Mirror.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured mirror topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		// One message per poll cycle; don't wait to fill a batch.
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.Timeout,
	}
	return &Writer{writer: w, logger: logger}
}

// Name implements pipeline.Mirror.
func (w *Writer) Name() string {
	return SinkName
}

// Mirror publishes doc keyed by location so every snapshot for a location
// lands on the same partition.
func (w *Writer) Mirror(ctx context.Context, cycleID string, doc domain.Document) error {
	msg, err := serializeToMessage(cycleID, doc)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	w.logger.Debug("document mirrored", "sink", SinkName, "topic", w.writer.Topic, "cycle_id", cycleID)
	return nil
}

// Close flushes pending messages and releases the connection.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Document into a Kafka message.
func serializeToMessage(cycleID string, doc domain.Document) (kafkago.Message, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather document: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(doc.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "cycle_id", Value: []byte(cycleID)},
			{Key: "updated", Value: []byte(doc.Updated.Format(time.RFC3339))},
		},
	}, nil
}
