// Package middleware provides HTTP middleware components for the refdata API.
package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/refdata-io/refdata/internal/store"
)

// AuthError represents an authentication error with a specific type.
type AuthError struct {
	Type    error
	Message string
}

// Authentication error types for granular error handling.
var (
	// ErrMissingAPIKey is returned when no API key is provided in headers.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidAPIKey is returned for invalid API key format or a hash mismatch.
	// Generic error prevents enumeration attacks.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// Error implements the error interface for AuthError.
func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed: %s: %s", e.Type.Error(), e.Message)
	}

	return "authentication failed: " + e.Type.Error()
}

// Unwrap returns the wrapped error type, enabling standard errors.Is() and errors.As() behavior.
func (e *AuthError) Unwrap() error {
	return e.Type
}

// extractAPIKey extracts the API key from request headers.
// It checks the X-Api-Key header first (primary), then falls back to
// Authorization: Bearer header (secondary).
//
// Returns (key, true) if found and valid, ("", false) otherwise.
//
// Security considerations:
// - Rejects keys containing newlines (header injection prevention)
// - Trims whitespace from keys
// - Case-sensitive "Bearer " prefix check
// - X-Api-Key takes precedence over Authorization header.
func extractAPIKey(r *http.Request) (string, bool) {
	// Primary: Check X-Api-Key header
	if apiKey := r.Header.Get("X-Api-Key"); apiKey != "" {
		return validateAPIKey(apiKey)
	}

	// Secondary: Check Authorization: Bearer header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")

		return validateAPIKey(token)
	}

	return "", false
}

// validateAPIKey validates and cleans an API key value.
// Returns (cleanedKey, true) if valid, ("", false) otherwise.
//
// Validation rules:
// - Rejects keys containing newlines (\r or \n) for header injection prevention
// - Trims leading/trailing whitespace
// - Rejects empty keys after trimming.
func validateAPIKey(key string) (string, bool) {
	if strings.ContainsAny(key, "\r\n") {
		return "", false
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}

	return key, true
}

// authenticateRequest validates apiKey against the configured admin key hash.
//
// The comparison is a bcrypt check via store.CompareAPIKeyHash. Requests
// with no usable key are rejected by AuthenticateAdmin before this is
// called, so no bcrypt comparison runs for them.
func authenticateRequest(apiKeyHash, apiKey string) error {
	if !store.CompareAPIKeyHash(apiKeyHash, apiKey) {
		return &AuthError{
			Type:    ErrInvalidAPIKey,
			Message: "Invalid or missing API key",
		}
	}

	return nil
}

// AuthenticateAdmin creates an authentication middleware that gates
// administrative routes (the watermark override) behind a single shared
// API key, whose bcrypt hash is supplied by the caller.
//
// The middleware:
// - Extracts API keys from X-Api-Key (primary) or Authorization: Bearer (fallback) headers
// - Validates the key against apiKeyHash using a constant-time bcrypt comparison
// - Returns RFC 7807 compliant error responses on failure
//
// Example usage:
//
//	authMiddleware := middleware.AuthenticateAdmin(adminKeyHash, logger)
//	handler = authMiddleware(handler)
func AuthenticateAdmin(apiKeyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authStart := time.Now()

			apiKey, found := extractAPIKey(r)
			if !found {
				writeAuthError(w, r, logger, &AuthError{
					Type:    ErrMissingAPIKey,
					Message: "Missing API key",
				})

				return
			}

			if err := authenticateRequest(apiKeyHash, apiKey); err != nil {
				writeAuthError(w, r, logger, err)

				return
			}

			logger.Info("admin API key authenticated",
				slog.Duration("auth_latency", time.Since(authStart)),
				slog.String("correlation_id", GetCorrelationID(r.Context())),
				slog.String("endpoint", r.URL.Path),
			)

			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError writes an RFC 7807 compliant error response for authentication failures.
func writeAuthError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	correlationID := GetCorrelationID(r.Context())

	statusCode := http.StatusUnauthorized

	logger.Warn("admin authentication failed",
		slog.String("reason", err.Error()),
		slog.String("correlation_id", correlationID),
		slog.String("endpoint", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("user_agent", r.UserAgent()),
	)

	if err := writeRFC7807Error(w, r, statusCode, err.Error(), correlationID); err != nil {
		logger.Error("failed to write response with RFC 7807 error format",
			slog.String("correlation_id", correlationID),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)

		http.Error(w, err.Error(), statusCode)
	}
}

// writeRFC7807Error writes an RFC 7807 compliant error response without importing the api package.
func writeRFC7807Error(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	detail,
	correlationID string,
) error {
	var title string

	switch statusCode {
	case http.StatusUnauthorized:
		title = "Unauthorized"
	case http.StatusForbidden:
		title = "Forbidden"
	case http.StatusTooManyRequests:
		title = "Too Many Requests"
	default:
		title = "Authentication Failed"
	}

	problem := map[string]interface{}{
		"type":           fmt.Sprintf("https://refdata.internal/problems/%d", statusCode),
		"title":          title,
		"status":         statusCode,
		"detail":         detail,
		"instance":       r.URL.Path,
		"correlation_id": correlationID,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(problem)
}
