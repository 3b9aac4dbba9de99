package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortHash returns the first 16 hex chars of sha256(s). Stable across
// processes; used to keep raw storage keys out of logs and label values.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
