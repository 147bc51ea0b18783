package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainProofInput separates proof input digests from any other SHA-256
// use. The version suffix allows the encoding to change later.
const DomainProofInput = "offline-sync/proof-input/v1"

// NonceSize is the number of random bytes in a placeholder nonce.
const NonceSize = 16

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InputDigest canonicalizes inputs and hashes them under DomainProofInput.
// The raw inputs are not retained anywhere.
func InputDigest(inputs map[string]any) (string, error) {
	canonical, err := MarshalCanonical(inputs)
	if err != nil {
		return "", fmt.Errorf("canonicalize proof inputs: %w", err)
	}
	return hashWithDomain(DomainProofInput, canonical), nil
}

// NewNonce returns NonceSize random bytes, hex encoded.
func NewNonce() (string, error) {
	b := make([]byte, NonceSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
