package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/trashrake-monitor/internal/config"
	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces newly seen sensor records to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured readings topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Name implements pipeline.Publisher.
func (w *Writer) Name() string { return "kafka" }

// Publish writes the records of the snapshot that were not in the previous
// accepted history, oldest first, in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.New) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.New))
	for i := range snap.New {
		msg, err := serializeToMessage(snap.New[i], snap.Generation, snap.FetchedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d records: %w", len(msgs), err)
	}
	w.logger.Debug("published records", "count", len(msgs), "generation", snap.Generation)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message keyed by its
// source timestamp.
func serializeToMessage(r domain.Record, generation uint64, fetchedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.Timestamp),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "trash_status", Value: []byte(r.Detection)},
			{Key: "level", Value: []byte(r.Level)},
			{Key: "generation", Value: []byte(strconv.FormatUint(generation, 10))},
			{Key: "fetched_at", Value: []byte(fetchedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
