package main

import (
	"log/slog"
	"time"

	"github.com/refdata-io/refdata/internal/config"
	"github.com/refdata-io/refdata/internal/watermark"
)

const (
	defaultBatchSize     = 500
	defaultPipeline      = "default"
	defaultKafkaGroupID  = "refdata-ingest"
	defaultAllowLateArr  = false
	defaultPollInterval  = 2 * time.Second
	defaultKnowledgeSkew = 0 * time.Second
)

// ingestConfig holds the runtime configuration for the Kafka batch-consumer
// entry point, loaded entirely from the environment (no flags, matching the
// zero-config posture of cmd/refdata-migrate).
type ingestConfig struct {
	Brokers       []string
	Topic         string
	GroupID       string
	Pipeline      string
	BatchSize     int
	AllowLate     bool
	PollInterval  time.Duration
	LogLevel      slog.Level
	AliasConfig   string
	KnowledgeSkew time.Duration
}

// loadIngestConfig reads REFDATA_INGEST_* environment variables with
// production-ready defaults, mirroring internal/api.LoadServerConfig's
// env-var-driven loader shape.
func loadIngestConfig() ingestConfig {
	return ingestConfig{
		Brokers:       config.ParseCommaSeparatedList(config.GetEnvStr("REFDATA_INGEST_KAFKA_BROKERS", "localhost:9092")),
		Topic:         config.GetEnvStr("REFDATA_INGEST_KAFKA_TOPIC", "refdata.facts"),
		GroupID:       config.GetEnvStr("REFDATA_INGEST_KAFKA_GROUP_ID", defaultKafkaGroupID),
		Pipeline:      config.GetEnvStr("REFDATA_PIPELINE", defaultPipeline),
		BatchSize:     config.GetEnvInt("REFDATA_INGEST_BATCH_SIZE", defaultBatchSize),
		AllowLate:     config.GetEnvBool("REFDATA_INGEST_ALLOW_LATE", defaultAllowLateArr),
		PollInterval:  config.GetEnvDuration("REFDATA_INGEST_POLL_INTERVAL", defaultPollInterval),
		LogLevel:      config.GetEnvLogLevel("REFDATA_LOG_LEVEL", slog.LevelInfo),
		AliasConfig:   config.GetEnvStr("REFDATA_ALIAS_CONFIG_PATH", ""),
		KnowledgeSkew: config.GetEnvDuration("REFDATA_INGEST_KNOWLEDGE_SKEW", defaultKnowledgeSkew),
	}
}

func (c ingestConfig) kafkaSourceConfig() watermark.KafkaSourceConfig {
	return watermark.KafkaSourceConfig{
		Brokers: c.Brokers,
		Topic:   c.Topic,
		GroupID: c.GroupID,
	}
}
