package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wu-history-viewer/internal/config"
	"github.com/couchcryptid/wu-history-viewer/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes normalized observations to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, clock: clockwork.NewRealClock(), logger: logger}
}

// Publish serializes and publishes one message per observation in a single
// WriteMessages call. Messages are keyed by station so a station's readings
// stay in one partition, in order.
func (w *Writer) Publish(ctx context.Context, stationID string, observations []domain.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	processedAt := w.clock.Now()
	msgs := make([]kafkago.Message, len(observations))
	for i := range observations {
		msg, err := serializeToMessage(stationID, observations[i], processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish observations: %w", err)
	}
	w.logger.Debug("published observations", "station_id", stationID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an observation into a Kafka message.
func serializeToMessage(stationID string, ob domain.Observation, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(ob)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	when := ""
	if ob.WhenISO != nil {
		when = *ob.WhenISO
	}
	return kafkago.Message{
		Key:   []byte(stationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(stationID)},
			{Key: "observed_at", Value: []byte(when)},
			{Key: "processed_at", Value: []byte(processedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
