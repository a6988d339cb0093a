package crypto

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// PersonalMessagePrefix is prepended to every message, followed by the
// decimal message length, before hashing.
const PersonalMessagePrefix = "\x19Ethereum Signed Message:\n"

// HashScheme selects the digest applied to the prefixed message.
type HashScheme int

const (
	// HashSHA256 is the default and the scheme the cross-device fixtures use.
	HashSHA256 HashScheme = iota
	// HashKeccak256 matches Ethereum personal_sign tooling byte for byte.
	HashKeccak256
)

func (h HashScheme) String() string {
	switch h {
	case HashSHA256:
		return "sha256"
	case HashKeccak256:
		return "keccak256"
	default:
		return "unknown"
	}
}

// ParseHashScheme parses "sha256" or "keccak256" (case-insensitive).
func ParseHashScheme(s string) (HashScheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sha256", "sha-256":
		return HashSHA256, nil
	case "keccak256", "keccak-256":
		return HashKeccak256, nil
	default:
		return 0, fmt.Errorf("%w: unknown hash scheme %q", ErrInvalidInput, s)
	}
}

// SignOption configures HashMessage, Sign, Verify and RecoverPublicKey.
type SignOption func(*signOptions)

type signOptions struct {
	scheme HashScheme
}

// WithHashScheme overrides the message digest. Signer and verifier must agree.
func WithHashScheme(scheme HashScheme) SignOption {
	return func(o *signOptions) {
		o.scheme = scheme
	}
}

func newSignOptions(opts []SignOption) signOptions {
	o := signOptions{scheme: HashSHA256}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// HashMessage returns H(prefix || len(message) || message).
func HashMessage(message []byte, opts ...SignOption) []byte {
	o := newSignOptions(opts)
	var h hash.Hash
	switch o.scheme {
	case HashKeccak256:
		h = sha3.NewLegacyKeccak256()
	default:
		h = sha256.New()
	}
	h.Write([]byte(PersonalMessagePrefix))
	h.Write([]byte(strconv.Itoa(len(message))))
	h.Write(message)
	return h.Sum(nil)
}

// Sign produces a deterministic recoverable signature over the prefixed
// message hash. The nonce comes from RFC 6979, so the result is a pure
// function of (message, key).
func Sign(message, key []byte, opts ...SignOption) (Signature, error) {
	if len(message) == 0 {
		return Signature{}, fmt.Errorf("%w: message must not be empty", ErrInvalidInput)
	}
	if !ValidScalar(key) {
		return Signature{}, ErrInvalidKey
	}
	priv := secp256k1.PrivKeyFromBytes(key)
	defer priv.Zero()

	// SignCompact lays out v || r || s with v = 27 + recovery id when the
	// key is flagged uncompressed.
	compact := ecdsa.SignCompact(priv, HashMessage(message, opts...), false)

	var sig Signature
	copy(sig[:64], compact[1:])
	sig[64] = compact[0]
	return sig, nil
}

// Verify reports whether sig is a valid signature of message by publicKey.
// It never errors: malformed keys or signatures simply fail verification.
func Verify(message []byte, sig Signature, publicKey []byte, opts ...SignOption) bool {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return false
	}
	if overflow := s.SetByteSlice(sig[32:64]); overflow || s.IsZero() {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(HashMessage(message, opts...), pub)
}

// VerifyHex is Verify over the hex wire form of the signature.
func VerifyHex(message []byte, signature string, publicKey []byte, opts ...SignOption) bool {
	sig, err := ParseSignature(signature)
	if err != nil {
		return false
	}
	return Verify(message, sig, publicKey, opts...)
}

// RecoverPublicKey reconstructs the compressed public key that produced sig.
func RecoverPublicKey(message []byte, sig Signature, opts ...SignOption) ([]byte, error) {
	v := sig.V()
	if v < RecoveryOffset || v > RecoveryOffset+3 {
		return nil, fmt.Errorf("%w: recovery byte %d out of range", ErrMalformedSignature, v)
	}
	compact := make([]byte, SignatureSize)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, HashMessage(message, opts...))
	if err != nil {
		return nil, fmt.Errorf("%w: recovering public key: %v", ErrMalformedSignature, err)
	}
	return pub.SerializeCompressed(), nil
}
