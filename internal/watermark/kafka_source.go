package watermark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/refdata-io/refdata/internal/segment"
)

// KafkaBatchSource reads raw fact records off a Kafka topic and validates
// them into segment.Fact values, ready for Driver.MergeBatch.
type KafkaBatchSource struct {
	reader    *kafka.Reader
	validator *segment.Validator
}

// KafkaSourceConfig configures the underlying kafka.Reader.
type KafkaSourceConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewKafkaBatchSource creates a source bound to cfg, resolving entity-id
// aliases through resolver (nil is a valid no-op resolver).
func NewKafkaBatchSource(cfg KafkaSourceConfig, resolver *segment.AliasResolver) *KafkaBatchSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})

	return &KafkaBatchSource{
		reader:    reader,
		validator: segment.NewValidator(resolver),
	}
}

// FetchBatch reads up to maxMessages records, or until ctx is done,
// whichever comes first. A record that fails validation is logged and
// skipped rather than failing the whole batch - one malformed message from
// an upstream producer should not stall ingestion.
func (s *KafkaBatchSource) FetchBatch(ctx context.Context, maxMessages int) ([]segment.Fact, error) {
	facts := make([]segment.Fact, 0, maxMessages)

	for i := 0; i < maxMessages; i++ {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}

			return facts, fmt.Errorf("fetch kafka message: %w", err)
		}

		var raw map[string]any
		if err := json.Unmarshal(msg.Value, &raw); err != nil {
			slog.Warn("dropping malformed kafka message",
				slog.String("topic", msg.Topic), slog.Int64("offset", msg.Offset), slog.String("error", err.Error()))

			continue
		}

		fact, err := s.validator.ValidateFact(raw)
		if err != nil {
			slog.Warn("dropping invalid fact from kafka",
				slog.String("topic", msg.Topic), slog.Int64("offset", msg.Offset), slog.String("error", err.Error()))

			continue
		}

		facts = append(facts, *fact)

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			return facts, fmt.Errorf("commit kafka offset: %w", err)
		}
	}

	return facts, nil
}

// Close releases the underlying Kafka connection.
func (s *KafkaBatchSource) Close() error {
	return s.reader.Close()
}
