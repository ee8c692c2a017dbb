package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/marine-pollution-reports/internal/config"
	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes report lifecycle events to a Kafka topic.
// It implements reports.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

const defaultBatchTimeout = 10 * time.Millisecond

// NewWriter creates a Kafka producer for the configured event topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{writer: newKafkaWriter(cfg, nil), logger: logger}
}

// newKafkaWriter builds the underlying producer. Publish writes one event per
// call and waits for it, so the batch timeout bounds the latency of every
// report write. A nil transport uses kafka-go's default.
func newKafkaWriter(cfg *config.Config, transport kafkago.RoundTripper) *kafkago.Writer {
	batchTimeout := cfg.KafkaBatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		Transport:              transport,
	}
}

// Publish writes one event keyed by report ID, so every event for a report
// lands on the same partition in order.
func (w *Writer) Publish(ctx context.Context, event domain.ReportEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report event: %w", err)
	}
	w.logger.Debug("report event published",
		"event_type", event.Type,
		"report_id", event.ReportID,
	)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ReportEvent into a Kafka message.
func serializeToMessage(event domain.ReportEvent) (kafkago.Message, error) {
	data, err := event.Marshal()
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
