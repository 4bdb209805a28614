// Package main provides the refdata Kafka batch-consumer entry point. It
// reads a window of messages off a Kafka topic, sorts/gates/merges them
// through watermark.Driver, and loops.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/refdata-io/refdata/internal/segment"
	"github.com/refdata-io/refdata/internal/store"
	"github.com/refdata-io/refdata/internal/watermark"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "refdata-ingest"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	cfg := loadIngestConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	logger.Info("starting refdata-ingest",
		slog.String("service", name),
		slog.String("version", version),
		slog.String("pipeline", cfg.Pipeline),
		slog.String("topic", cfg.Topic),
		slog.Int("batch_size", cfg.BatchSize),
		slog.Bool("allow_late", cfg.AllowLate),
	)

	dbConfig := store.LoadConfig()
	if err := dbConfig.Validate(); err != nil {
		logger.Error("invalid database configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	conn, err := store.NewConnection(dbConfig)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("database_url", dbConfig.MaskDatabaseURL()),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer conn.Close()

	timeline := store.NewPostgresTimelineStore(conn)

	aliasConfig, err := loadAliasConfig(cfg)
	if err != nil {
		logger.Error("failed to load entity alias config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	resolver := segment.NewAliasResolver(aliasConfig)
	source := watermark.NewKafkaBatchSource(cfg.kafkaSourceConfig(), resolver)
	defer source.Close()

	driver := watermark.NewDriver(timeline, timeline, cfg.Pipeline)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runLoop(ctx, logger, cfg, source, driver)

	logger.Info("refdata-ingest stopped")
}

// loadAliasConfig loads entity-alias pattern config from cfg.AliasConfig if
// set, otherwise falls back to the default path/env-var resolution used by
// cmd/refdata-server.
func loadAliasConfig(cfg ingestConfig) (*segment.AliasConfig, error) {
	if cfg.AliasConfig != "" {
		return segment.LoadAliasConfig(cfg.AliasConfig)
	}

	return segment.LoadAliasConfigFromEnv()
}

// runLoop repeatedly fetches a batch from source and merges it through
// driver until ctx is cancelled. Each iteration is bounded by
// cfg.PollInterval so the loop notices shutdown promptly even when the
// topic is idle.
func runLoop(
	ctx context.Context, logger *slog.Logger, cfg ingestConfig, source *watermark.KafkaBatchSource, driver *watermark.Driver,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, cfg.PollInterval)
		facts, err := source.FetchBatch(fetchCtx, cfg.BatchSize)
		cancel()

		if err != nil {
			logger.Error("failed to fetch batch from kafka", slog.String("error", err.Error()))

			continue
		}

		if len(facts) == 0 {
			continue
		}

		batchID := uuid.New().String()
		knowledgeTime := time.Now().UTC().Add(cfg.KnowledgeSkew).Truncate(time.Second)

		summary, err := driver.MergeBatch(ctx, facts, knowledgeTime, cfg.AllowLate)
		if err != nil {
			logger.Error("failed to merge batch",
				slog.String("batch_id", batchID),
				slog.String("error", err.Error()),
			)

			continue
		}

		logger.Info("merged batch",
			slog.String("batch_id", batchID),
			slog.Int("processed", summary.Processed),
			slog.Int("skipped_as_late", summary.SkippedAsLate),
			slog.Int("inserted_rows", summary.InsertedRows),
			slog.Time("knowledge_time", summary.KnowledgeTime),
		)
	}
}
