// Package crypto implements the deterministic signing identity primitives:
// scalar derivation from passkey identifiers, secp256k1 signing with
// RFC 6979 nonces, and password-based AES-256-GCM sealing.
package crypto

import (
	"crypto/sha256"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/jmcleod/ironsign/internal/util"
)

const (
	// KeySize is the size of a derived private scalar.
	KeySize = 32
	// PublicKeySize is the size of a compressed SEC1 public key.
	PublicKeySize = 33
	// MaxScalarRetries bounds the re-hash loop that maps an out-of-range
	// HKDF output onto a valid scalar.
	MaxScalarRetries = 8
	// MaxIdentifierLength bounds credential and user identifiers.
	MaxIdentifierLength = 1024
)

var signingKeyInfo = []byte("ironsign:signing-key:v1")

// DeriveOption is a functional option for DeriveSigningKey.
type DeriveOption func(*deriveOptions)

type deriveOptions struct {
	salt []byte
}

// WithSalt sets the HKDF salt. The default is empty.
func WithSalt(salt []byte) DeriveOption {
	return func(o *deriveOptions) {
		o.salt = util.CopyBytes(salt)
	}
}

// DeriveSigningKey deterministically derives a secp256k1 private scalar from
// the credential and user identifiers. The input key material is the raw
// UTF-8 bytes of credentialID followed by userID; no entropy is involved, so
// the same pair always yields the same key on every device.
func DeriveSigningKey(credentialID, userID string, opts ...DeriveOption) ([]byte, error) {
	if err := ValidateIdentifier(credentialID, "credential ID"); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(userID, "user ID"); err != nil {
		return nil, err
	}

	o := deriveOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	ikm := util.Concat([]byte(credentialID), []byte(userID))
	defer util.WipeBytes(ikm)

	candidate, err := util.HKDF(ikm, o.salt, signingKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving signing key: %w", err)
	}
	return reduceToScalar(candidate, MaxScalarRetries)
}

// reduceToScalar re-hashes candidate with SHA-256 until it is a valid scalar,
// giving up after maxRetries re-hashes.
func reduceToScalar(candidate []byte, maxRetries int) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if ValidScalar(candidate) {
			return candidate, nil
		}
		if attempt == maxRetries {
			break
		}
		next := sha256.Sum256(candidate)
		util.WipeBytes(candidate)
		candidate = next[:]
	}
	util.WipeBytes(candidate)
	return nil, fmt.Errorf("%w: no valid scalar after %d re-hashes", ErrKeyDerivationExhausted, maxRetries)
}

// ValidScalar reports whether key is a 32-byte big-endian integer in [1, n-1]
// for the secp256k1 group order n.
func ValidScalar(key []byte) bool {
	if len(key) != KeySize {
		return false
	}
	var s secp256k1.ModNScalar
	overflow := s.SetByteSlice(key)
	valid := !overflow && !s.IsZero()
	s.Zero()
	return valid
}

// PublicKey returns the compressed public point k·G for the private scalar k.
// Passing anything other than a valid scalar is a precondition violation.
func PublicKey(key []byte) ([]byte, error) {
	if !ValidScalar(key) {
		return nil, ErrInvalidKey
	}
	priv := secp256k1.PrivKeyFromBytes(key)
	defer priv.Zero()
	return priv.PubKey().SerializeCompressed(), nil
}

// ValidateIdentifier checks that an externally supplied identifier is usable
// as derivation input. label names the identifier in the error message.
func ValidateIdentifier(id, label string) error {
	if id == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidInput, label)
	}
	if len(id) > MaxIdentifierLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d", ErrInvalidInput, label, MaxIdentifierLength)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: %s contains invalid UTF-8", ErrInvalidInput, label)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %s contains control character", ErrInvalidInput, label)
		}
	}
	return nil
}
