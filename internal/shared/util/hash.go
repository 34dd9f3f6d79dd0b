package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashClientKey returns a stable opaque identifier for a client ID so raw
// IPs and browser IDs are never stored.
func HashClientKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
