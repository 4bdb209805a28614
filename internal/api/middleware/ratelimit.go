// Package middleware provides HTTP middleware components for the refdata API.
package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

const (
	burstCapacityMultiplier int = 2
	defaultGlobalRPS        int = 100
	defaultDefaultRPS       int = 20
)

// RateLimiter provides rate limiting for incoming requests.
//
// Implementations may use in-memory token buckets (single-node deployment)
// or distributed stores like Redis (multi-node deployment). The interface
// enables zero-downtime migration from in-memory to Redis-backed limiting.
type RateLimiter interface {
	// Allow checks if a request should be allowed based on rate limits.
	// Returns true if allowed, false if rate limited.
	Allow() bool
}

// InMemoryRateLimiter implements RateLimiter using golang.org/x/time/rate.
//
// Provides two-tier rate limiting:
// 1. Global limit (applied to all requests)
// 2. Default limit (applied to every request)
//
// Uses token bucket algorithm with configurable burst capacity.
type InMemoryRateLimiter struct {
	global *rate.Limiter
	limit  *rate.Limiter
}

// NewInMemoryRateLimiter creates a new in-memory rate limiter with two-tier limits.
//
// Burst capacity is computed automatically as 2 × rate unless overridden in config.
func NewInMemoryRateLimiter(config *Config) *InMemoryRateLimiter {
	globalBurst := computeBurstCapacity(config.GlobalRPS, config.GlobalBurst)
	defaultBurst := computeBurstCapacity(config.DefaultRPS, config.DefaultBurst)

	return &InMemoryRateLimiter{
		global: rate.NewLimiter(rate.Limit(config.GlobalRPS), globalBurst),
		limit:  rate.NewLimiter(rate.Limit(config.DefaultRPS), defaultBurst),
	}
}

// computeBurstCapacity computes the burst capacity based on the rate and optional override.
//
// If burstOverride is 0, computes burst automatically as 2 × rate.
// If burstOverride > 0, uses the override value.
func computeBurstCapacity(rps, burstOverride int) int {
	if burstOverride > 0 {
		return burstOverride
	}

	return rps * burstCapacityMultiplier
}

// Allow checks if a request should be allowed based on rate limits.
// Implements the RateLimiter interface.
//
// Rate limiting is enforced in two tiers, global first (fail fast) then default.
func (rl *InMemoryRateLimiter) Allow() bool {
	if !rl.global.Allow() {
		return false
	}

	return rl.limit.Allow()
}

// RateLimit returns a middleware that enforces rate limits on incoming requests.
//
// When a request exceeds the rate limit, the middleware returns a 429 (Too Many Requests)
// response with RFC 7807 error format.
//
// Example:
//
//	rateLimiter := NewInMemoryRateLimiter(&Config{GlobalRPS: 100, DefaultRPS: 20})
//	handler := RateLimit(rateLimiter, logger)(mux)
func RateLimit(limiter RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				correlationID := GetCorrelationID(r.Context())

				detail := "Rate limit exceeded. Please retry after some time."
				if err := writeRFC7807Error(w, r, http.StatusTooManyRequests, detail, correlationID); err != nil {
					logger.Error("failed to write response with RFC 7807 error format",
						slog.String("correlation_id", correlationID),
						slog.String("path", r.URL.Path),
						slog.String("detail", detail),
						slog.String("error", err.Error()),
					)

					http.Error(w, detail, http.StatusTooManyRequests)
				}

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
