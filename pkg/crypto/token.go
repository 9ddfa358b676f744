package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NonceBytes is the entropy of an authentication nonce (32 hex characters)
const NonceBytes = 16

var randomRead = rand.Read

// GenerateRandomToken generates a random token of specified length
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateNonce generates a wallet authentication nonce
func GenerateNonce() (string, error) {
	return GenerateRandomToken(NonceBytes)
}
