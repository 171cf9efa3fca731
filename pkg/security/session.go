package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewSessionID returns a 256-bit random, URL-safe identifier.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
