// Package secrets generates and fingerprints opaque credential material:
// authorization codes, password-reset tokens, and first-party refresh
// tokens. Values are produced from crypto/rand and rendered as lowercase
// hex so they survive URLs, headers, and Redis keys unmodified.
//
// Stored copies of these values must always be hashes. Hash is one-way
// SHA-256; lookups are performed by hashing the presented value and
// comparing against the stored digest.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrEntropyUnavailable is returned when the platform random source fails.
var ErrEntropyUnavailable = errors.New("entropy source unavailable")

// Generate returns a hex-encoded random secret of byteLen random bytes.
// The encoded string is twice byteLen characters long.
func Generate(byteLen int) (string, error) {
	if byteLen <= 0 {
		return "", errors.New("secret length must be positive")
	}

	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	return hex.EncodeToString(buf), nil
}

// Hash returns the hex-encoded SHA-256 digest of value. Used for storing
// authorization codes and reset tokens so the cleartext is never persisted.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether value hashes to storedHash. Comparison is
// constant-time over the digest.
func Verify(value, storedHash string) bool {
	computed := sha256.Sum256([]byte(value))
	expected, err := hex.DecodeString(storedHash)
	if err != nil || len(expected) != sha256.Size {
		return false
	}

	return subtle.ConstantTimeCompare(computed[:], expected) == 1
}
