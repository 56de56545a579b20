package cryptoutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of hex chars kept by Fingerprint (64 bits)
const fingerprintLen = 16

// SHA256Hex computes the SHA-256 hash of the input data and returns it as a hex string
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Fingerprint returns a short, stable, non-reversible identifier for a secret.
func Fingerprint(secret string) string {
	return SHA256Hex([]byte(secret))[:fingerprintLen]
}
