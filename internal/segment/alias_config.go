package segment

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/refdata-io/refdata/internal/config"
)

type (
	// EntityPattern defines a pattern-based rewrite rule for entity ids.
	//
	// Patterns are evaluated in order; first match wins.
	EntityPattern struct {
		Pattern   string `yaml:"pattern"`
		Canonical string `yaml:"canonical"`
	}

	// AliasConfig holds entity-id pattern configuration loaded from
	// a YAML file (default ".refdata.yaml").
	AliasConfig struct {
		//nolint:tagliatelle // snake_case is intentional for YAML config files
		EntityPatterns []EntityPattern `yaml:"entity_patterns"`
	}
)

const (
	// DefaultAliasConfigPath is the default location for entity alias config.
	DefaultAliasConfigPath = ".refdata.yaml"

	// AliasConfigPathEnvVar is the environment variable for a custom path.
	AliasConfigPathEnvVar = "REFDATA_ALIAS_CONFIG_PATH"
)

// LoadAliasConfig loads pattern configuration from a YAML file at the given
// path.
//
// Missing file, unreadable file, or invalid YAML all degrade gracefully to
// an empty config (entity alias resolution is optional) with a logged
// warning - the merge engine must still be able to start without it.
func LoadAliasConfig(path string) (*AliasConfig, error) {
	cfg := &AliasConfig{EntityPatterns: []EntityPattern{}}

	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config source
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("entity alias config not found, continuing without patterns", slog.String("path", path))

			return cfg, nil
		}

		slog.Warn("failed to read entity alias config, continuing without patterns",
			slog.String("path", path), slog.String("error", err.Error()))

		return cfg, nil
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("failed to parse entity alias config, continuing without patterns",
			slog.String("path", path), slog.String("error", err.Error()))

		return &AliasConfig{EntityPatterns: []EntityPattern{}}, nil
	}

	if cfg.EntityPatterns == nil {
		cfg.EntityPatterns = []EntityPattern{}
	}

	return cfg, nil
}

// LoadAliasConfigFromEnv loads config from the path named by
// REFDATA_ALIAS_CONFIG_PATH, falling back to DefaultAliasConfigPath.
func LoadAliasConfigFromEnv() (*AliasConfig, error) {
	path := config.GetEnvStr(AliasConfigPathEnvVar, DefaultAliasConfigPath)

	return LoadAliasConfig(path)
}
