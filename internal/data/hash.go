package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room to change
// the algorithm without confusing old digests with new ones.
const (
	DomainSave   = "overlay/save/v1"
	DomainSource = "overlay/source/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
// The null separator keeps domain and payload from running together.
func hashWithDomain(domain string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the domain-separated digest of v's canonical encoding.
func Hash(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// HashBytes returns the domain-separated digest of already canonical bytes.
func HashBytes(domain string, canonical []byte) string {
	return hashWithDomain(domain, canonical)
}

// MustHash is like Hash but panics on error.
// Use only in tests or when v is known to be encodable.
func MustHash(domain string, v any) string {
	h, err := Hash(domain, v)
	if err != nil {
		panic(err)
	}
	return h
}
