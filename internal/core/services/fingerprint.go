package services

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintPrefix names the digest so stored signatures stay comparable
// if the algorithm ever changes.
const fingerprintPrefix = "sha256:"

// Fingerprint returns a deterministic content signature for data.
// It is used for equality comparison only.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return fingerprintPrefix + hex.EncodeToString(sum[:])
}
