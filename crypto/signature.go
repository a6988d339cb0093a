package crypto

import (
	"encoding/hex"
	"fmt"

	"github.com/jmcleod/ironsign/internal/util"
)

const (
	// SignatureSize is the size of r || s || v.
	SignatureSize = 65
	// RecoveryOffset is added to the recovery id to form v.
	RecoveryOffset = 27
)

// Signature is a recoverable secp256k1 signature laid out as
// r (32 bytes, big-endian) || s (32 bytes, big-endian) || v (recovery id + 27).
type Signature [SignatureSize]byte

func (s Signature) R() []byte {
	return util.CopyBytes(s[:32])
}

func (s Signature) S() []byte {
	return util.CopyBytes(s[32:64])
}

func (s Signature) V() byte {
	return s[64]
}

// RecoveryID returns v - 27.
func (s Signature) RecoveryID() byte {
	return s[64] - RecoveryOffset
}

func (s Signature) Bytes() []byte {
	return util.CopyBytes(s[:])
}

// Hex returns the wire form: 0x followed by 130 lowercase hex characters.
func (s Signature) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Signature) String() string {
	return s.Hex()
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.Hex()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SignatureFromBytes copies a 65-byte r || s || v blob into a Signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureSize {
		return sig, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, SignatureSize, len(b))
	}
	copy(sig[:], b)
	return sig, nil
}

// ParseSignature decodes the hex wire form. The 0x prefix is optional.
func ParseSignature(s string) (Signature, error) {
	raw := util.TrimHexPrefix(s)
	if len(raw) != SignatureSize*2 {
		return Signature{}, fmt.Errorf("%w: expected %d hex characters, got %d", ErrMalformedSignature, SignatureSize*2, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return SignatureFromBytes(b)
}
