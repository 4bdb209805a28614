package watermark_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/refdata-io/refdata/internal/watermark"
)

// TestKafkaBatchSource_FetchBatch exercises the Kafka consumer side of the
// batch driver against a real broker rather than mocks.
func TestKafkaBatchSource_FetchBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("refdata-it"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	const topic = "refdata.facts.it"

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	fact := map[string]any{
		"entity_id":  "EQ1",
		"event_time": "2025-01-01T00:00:00Z",
		"status":     "ACTIVE",
	}

	payload, err := json.Marshal(fact)
	require.NoError(t, err)

	require.NoError(t, writer.WriteMessages(ctx, kafka.Message{Value: payload}))
	require.NoError(t, writer.Close())

	source := watermark.NewKafkaBatchSource(watermark.KafkaSourceConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: "refdata-it-consumer",
	}, nil)

	t.Cleanup(func() {
		_ = source.Close()
	})

	fetchCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	facts, err := source.FetchBatch(fetchCtx, 10)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, "EQ1", facts[0].EntityID)
}
