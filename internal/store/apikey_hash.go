package store

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost  = 10
	bcryptLimit = 72
)

// ErrAPIKeyEmpty is returned when an empty API key is hashed or compared.
var ErrAPIKeyEmpty = errors.New("API key cannot be empty")

// HashAPIKey generates a bcrypt hash of an admin API key for secure storage.
//
// Bcrypt has a 72-byte input limit; keys longer than that are pre-hashed with
// SHA-256 first so behaviour stays consistent regardless of key length.
func HashAPIKey(apiKey string) (string, error) {
	if apiKey == "" {
		return "", ErrAPIKeyEmpty
	}

	hash, err := bcrypt.GenerateFromPassword(prepareAPIKeyInput(apiKey), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}

	return string(hash), nil
}

// CompareAPIKeyHash performs a constant-time comparison of apiKey against hash.
// Returns false for any error condition, including empty inputs.
func CompareAPIKeyHash(hash, apiKey string) bool {
	if hash == "" || apiKey == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), prepareAPIKeyInput(apiKey)) == nil
}

func prepareAPIKeyInput(apiKey string) []byte {
	if len(apiKey) <= bcryptLimit {
		return []byte(apiKey)
	}

	sum := sha256.Sum256([]byte(apiKey))

	return sum[:]
}
