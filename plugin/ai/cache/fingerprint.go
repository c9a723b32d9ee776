package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint derives a stable cache key from a request payload. The payload
// is canonicalized before hashing (encoding/json writes map keys in sorted
// order, recursively), so two logically identical payloads produce the same
// key regardless of field-insertion order.
func Fingerprint(payload map[string]any) (string, error) {
	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
