package util

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const HKDFKeyLength = 32

// HKDF derives HKDFKeyLength bytes with HMAC-SHA-256. An empty salt is
// treated by HKDF as a string of zero bytes.
func HKDF(seed []byte, salt []byte, info []byte) ([]byte, error) {
	return HKDFExpand(seed, salt, info, HKDFKeyLength)
}

func HKDFExpand(seed []byte, salt []byte, info []byte, length int) ([]byte, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("HKDF seed must not be empty")
	}
	h := hkdf.New(sha256.New, seed, salt, info)
	k := make([]byte, length)
	if _, err := io.ReadFull(h, k); err != nil {
		return nil, fmt.Errorf("reading from HKDF: %w", err)
	}
	return k, nil
}
