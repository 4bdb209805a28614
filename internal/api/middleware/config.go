// Package middleware provides HTTP middleware components for the refdata API.
package middleware

import (
	"github.com/refdata-io/refdata/internal/config"
)

// Config holds rate limiter configuration.
//
// Rate limits specify requests per second (RPS) for two tiers:
//   - Global: applied to all requests
//   - Default: applied to every request not covered by a narrower limit
//
// Burst capacity allows temporary bursts above sustained rate.
// If burst fields are 0, they are computed automatically as 2 × rate.
type Config struct {
	// Rate limits (requests per second)
	GlobalRPS  int // Default: 100
	DefaultRPS int // Default: 20

	// Optional burst capacity overrides (0 = compute automatically as 2 × rate)
	GlobalBurst  int // Default: 0 (computed as 2 × GlobalRPS)
	DefaultBurst int // Default: 0 (computed as 2 × DefaultRPS)
}

// LoadConfig loads middleware config from environment variables with fallback to defaults.
//
// Default burst capacity: 2 × rate (allows 2-second burst).
func LoadConfig() *Config {
	return &Config{
		GlobalRPS:  config.GetEnvInt("REFDATA_GLOBAL_RPS", defaultGlobalRPS),
		DefaultRPS: config.GetEnvInt("REFDATA_DEFAULT_RPS", defaultDefaultRPS),

		GlobalBurst:  config.GetEnvInt("REFDATA_GLOBAL_BURST", 0),
		DefaultBurst: config.GetEnvInt("REFDATA_DEFAULT_BURST", 0),
	}
}
