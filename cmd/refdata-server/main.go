// Package main provides the refdata HTTP API service: the bi-temporal
// merge, as-of query, and watermark surface.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/refdata-io/refdata/internal/api"
	"github.com/refdata-io/refdata/internal/api/middleware"
	"github.com/refdata-io/refdata/internal/segment"
	"github.com/refdata-io/refdata/internal/store"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "refdata-server"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	serverConfig := api.LoadServerConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: serverConfig.LogLevel,
	}))

	logger.Info("starting refdata-server",
		slog.String("service", name),
		slog.String("version", version),
		slog.String("pipeline", serverConfig.Pipeline),
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

	timeline := store.NewPostgresTimelineStore(conn)

	aliasConfig, err := segment.LoadAliasConfigFromEnv()
	if err != nil {
		logger.Error("failed to load entity alias config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	resolver := segment.NewAliasResolver(aliasConfig)
	validator := segment.NewValidator(resolver)

	rateLimiter := middleware.NewInMemoryRateLimiter(middleware.LoadConfig())

	server := api.NewServer(&serverConfig, timeline, timeline, timeline, validator, rateLimiter)

	if err := server.Start(); err != nil {
		logger.Error("server failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("refdata-server stopped")
}
