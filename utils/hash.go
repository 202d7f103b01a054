package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashImage returns the hex SHA-256 digest of raw image bytes.
// Deterministic and collision-resistant; this is the content hash used
// for duplicate-report detection. Empty input is a caller error and is
// hashed like any other byte sequence.
func HashImage(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TruncateHash returns a truncated hash for storage keys and log display.
func TruncateHash(hash string, length int) string {
	if len(hash) <= length {
		return hash
	}
	return hash[:length]
}
