// Package auth generates API keys and checks them against a bcrypt hash.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidAPIKey = errors.New("invalid API key")

// GenerateAPIKey returns a random URL-safe key
func GenerateAPIKey() (string, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(keyBytes), nil
}

// HashAPIKey returns the bcrypt hash to store in the configuration
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return string(hash), nil
}

// Authenticator validates keys against a single bcrypt hash. The last key
// that matched is remembered so repeated requests skip bcrypt.
type Authenticator struct {
	hash []byte

	mu       sync.RWMutex
	verified string
}

// NewAuthenticator creates an authenticator for hash
func NewAuthenticator(hash string) *Authenticator {
	return &Authenticator{hash: []byte(hash)}
}

// ValidateAPIKey returns ErrInvalidAPIKey unless apiKey matches the hash
func (a *Authenticator) ValidateAPIKey(apiKey string) error {
	if apiKey == "" {
		return ErrInvalidAPIKey
	}

	a.mu.RLock()
	verified := a.verified
	a.mu.RUnlock()
	if verified != "" && SecureCompare(verified, apiKey) {
		return nil
	}

	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(apiKey)); err != nil {
		return ErrInvalidAPIKey
	}

	a.mu.Lock()
	a.verified = apiKey
	a.mu.Unlock()
	return nil
}

// SecureCompare performs constant-time comparison
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
