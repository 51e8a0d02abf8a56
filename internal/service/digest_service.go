package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HMACDigestService implements ports.DigestService with keyed HMAC-SHA256.
// Digests are deterministic, so equal plaintexts map to equal digests and
// encrypted columns stay queryable by equality; the key keeps the digest
// from acting as an unsalted hash of the address.
type HMACDigestService struct {
	key []byte
}

// NewHMACDigestService creates a digest service from a hex-encoded key.
func NewHMACDigestService(hexKey string) (*HMACDigestService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding digest key: %w", err)
	}
	if len(key) < 16 {
		return nil, fmt.Errorf("digest key must be at least 16 bytes, got %d", len(key))
	}
	return &HMACDigestService{key: key}, nil
}

// Digest returns the lowercase hex HMAC-SHA256 of value.
func (s *HMACDigestService) Digest(value string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
